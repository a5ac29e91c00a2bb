// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes assets by status, domain and org-unit as an ASCII overview
package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harperreed/expirytrack/models"
)

type DashboardStats struct {
	TotalAssets int

	ByStatus map[models.Status]int
	ByDomain map[string]int
	ByOrg    map[string]OrgStats

	// Expired assets, most overdue first
	Overdue []OverdueAsset
}

type OrgStats struct {
	OrgUnit  string
	Total    int
	Expiring int
	Expired  int
}

type OverdueAsset struct {
	ExternalID  string
	Topic       string
	OrgUnit     string
	SubUnit     string
	DaysOverdue int
}

func GenerateDashboardStats(views []models.AssetView) *DashboardStats {
	stats := &DashboardStats{
		TotalAssets: len(views),
		ByStatus:    make(map[models.Status]int),
		ByDomain:    make(map[string]int),
		ByOrg:       make(map[string]OrgStats),
	}

	for _, v := range views {
		stats.ByStatus[v.Status]++

		domain := v.Domain
		if domain == "" {
			domain = "unknown"
		}
		stats.ByDomain[domain]++

		org := stats.ByOrg[v.OrgUnit]
		org.OrgUnit = v.OrgUnit
		org.Total++
		switch v.Status {
		case models.StatusExpiringSoon:
			org.Expiring++
		case models.StatusExpired:
			org.Expired++
			stats.Overdue = append(stats.Overdue, OverdueAsset{
				ExternalID:  v.ExternalID,
				Topic:       v.Topic,
				OrgUnit:     v.OrgUnit,
				SubUnit:     v.SubUnit,
				DaysOverdue: -v.DaysRemaining,
			})
		}
		stats.ByOrg[v.OrgUnit] = org
	}

	sort.SliceStable(stats.Overdue, func(i, j int) bool {
		return stats.Overdue[i].DaysOverdue > stats.Overdue[j].DaysOverdue
	})
	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  EXPIRYTRACK DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("STATUS\n")
	renderStatus(&out, stats.ByStatus)
	out.WriteString("\n")

	out.WriteString("BY DOMAIN\n")
	for _, domain := range sortedKeys(stats.ByDomain) {
		out.WriteString(fmt.Sprintf("  %-12s %3d\n", domain, stats.ByDomain[domain]))
	}
	out.WriteString("\n")

	out.WriteString("BY ORG-UNIT\n")
	orgs := make([]string, 0, len(stats.ByOrg))
	for org := range stats.ByOrg {
		orgs = append(orgs, org)
	}
	sort.Strings(orgs)
	for _, org := range orgs {
		s := stats.ByOrg[org]
		out.WriteString(fmt.Sprintf("  %-20s %3d total  %3d expiring  %3d expired\n", org, s.Total, s.Expiring, s.Expired))
	}

	if len(stats.Overdue) > 0 {
		out.WriteString("\nNEEDS ATTENTION\n")
		for _, a := range stats.Overdue {
			out.WriteString(fmt.Sprintf("  ⚠️  #%s %s (%s/%s) expired %d days ago\n",
				a.ExternalID, a.Topic, a.OrgUnit, a.SubUnit, a.DaysOverdue))
		}
	}

	return out.String()
}

func renderStatus(out *strings.Builder, byStatus map[models.Status]int) {
	statuses := []models.Status{
		models.StatusValid,
		models.StatusExpiringSoon,
		models.StatusExpired,
	}

	maxCount := 0
	for _, count := range byStatus {
		if count > maxCount {
			maxCount = count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, status := range statuses {
		count := byStatus[status]
		barLength := (count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-14s %s  %3d\n", status, bar, count))
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
