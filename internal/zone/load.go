package zone

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shirolong/channelcore/internal/data"
	"github.com/shirolong/channelcore/internal/geo"
)

// Load fetches zoneID's definition plus its geometry and dynamic-map spot
// table (when dynamicMapID is nonzero) and constructs a ready-to-tick Zone.
// Split out of New so cmd/channelserver's process wiring doesn't need to
// know the store calls a zone requires to come alive.
func Load(ctx context.Context, zoneID, dynamicMapID int32, store data.DefinitionStore, server data.ServerDataStore, resolver CombatResolver, cfg Config, log *slog.Logger) (*Zone, error) {
	zd, err := server.Zone(ctx, zoneID, dynamicMapID)
	if err != nil {
		return nil, fmt.Errorf("loading zone %d (dynamicMap %d): %w", zoneID, dynamicMapID, err)
	}

	var geometry *geo.Geometry
	if zd.QmpName != "" {
		qmp, err := store.Qmp(ctx, zd.QmpName)
		if err != nil {
			return nil, fmt.Errorf("loading geometry %q for zone %d: %w", zd.QmpName, zoneID, err)
		}
		geometry = geo.NewGeometry(qmp.Elements)
	}

	var dynamicMap *geo.DynamicMap
	if dynamicMapID != 0 {
		records, err := store.Spots(ctx, dynamicMapID)
		if err != nil {
			return nil, fmt.Errorf("loading spots for dynamic map %d: %w", dynamicMapID, err)
		}
		spots := make([]geo.Spot, 0, len(records))
		for _, r := range records {
			spots = append(spots, geo.Spot{
				ID:       r.SpotID,
				CenterX:  r.CenterX,
				CenterY:  r.CenterY,
				SpanX:    r.SpanX,
				SpanY:    r.SpanY,
				Rotation: r.Rotation,
				Type:     geo.SpotType(r.Type),
			})
		}
		dynamicMap = geo.NewDynamicMap(dynamicMapID, spots)
	}

	return New(zoneID, *zd, geometry, dynamicMap, store, resolver, cfg, log), nil
}
