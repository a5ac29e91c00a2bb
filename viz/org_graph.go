// ABOUTME: Org chart graph of tracked assets
// ABOUTME: Renders org-unit, sub-unit and asset nodes coloured by status with go-graphviz
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/expirytrack/models"
)

// StatusColor is the fill colour used for an asset in a given status.
func StatusColor(status models.Status) string {
	switch status {
	case models.StatusExpired:
		return "tomato"
	case models.StatusExpiringSoon:
		return "gold"
	default:
		return "palegreen"
	}
}

// GenerateOrgGraph lays out assets under their org-unit and sub-unit.
func GenerateOrgGraph(ctx context.Context, views []models.AssetView, format graphviz.Format) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLabel("Assets by unit")
	graph.SetRankDir(cgraph.LRRank)

	orgNodes := make(map[string]*cgraph.Node)
	subNodes := make(map[string]*cgraph.Node)

	for _, v := range views {
		orgNode, ok := orgNodes[v.OrgUnit]
		if !ok {
			orgNode, err = graph.CreateNodeByName("org:" + v.OrgUnit)
			if err != nil {
				return "", fmt.Errorf("failed to create org-unit node: %w", err)
			}
			orgNode.SetLabel(v.OrgUnit)
			orgNode.SetShape("folder")
			orgNode.SetStyle("filled")
			orgNode.SetFillColor("lightblue")
			orgNodes[v.OrgUnit] = orgNode
		}

		subKey := v.OrgUnit + "/" + v.SubUnit
		subNode, ok := subNodes[subKey]
		if !ok {
			subNode, err = graph.CreateNodeByName("sub:" + subKey)
			if err != nil {
				return "", fmt.Errorf("failed to create sub-unit node: %w", err)
			}
			subNode.SetLabel(v.SubUnit)
			subNode.SetShape("tab")
			subNodes[subKey] = subNode

			if _, err := graph.CreateEdgeByName("contains", orgNode, subNode); err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
		}

		assetNode, err := graph.CreateNodeByName("asset:" + v.ID.String())
		if err != nil {
			return "", fmt.Errorf("failed to create asset node: %w", err)
		}
		assetNode.SetLabel(fmt.Sprintf("%s\n%s\n%s (%d)", v.ExternalID, v.Topic, v.ExpirationDate.Format("2006-01-02"), v.DaysRemaining))
		assetNode.SetShape("box")
		assetNode.SetStyle("filled")
		assetNode.SetFillColor(StatusColor(v.Status))

		edge, err := graph.CreateEdgeByName("holds", subNode, assetNode)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		if v.Status == models.StatusExpired {
			edge.SetStyle("dashed")
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, format, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}
