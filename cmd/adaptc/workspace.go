package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/effectus/adaptation"
	"github.com/effectus/adaptation/factory"
	"github.com/effectus/adaptation/manifest"
	"github.com/effectus/adaptation/protocol"
)

// workspace is a manager populated from manifests. Its converter table is
// empty: converters are Go code and never run here.
type workspace struct {
	manager   *adaptation.Manager
	manifests []*manifest.Manifest
	factories []*factory.Factory
}

func loadWorkspace(paths []string, maxExplored int) (*workspace, error) {
	ws := &workspace{
		manager: adaptation.NewManager(
			adaptation.WithConverters(factory.NewConverterTable()),
			adaptation.WithMaxExplored(maxExplored),
		),
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		if info.IsDir() {
			manifests, err := manifest.LoadDir(path)
			if err != nil {
				return nil, err
			}
			ws.manifests = append(ws.manifests, manifests...)
			continue
		}

		m, err := manifest.Load(path)
		if err != nil {
			return nil, err
		}
		ws.manifests = append(ws.manifests, m)
	}

	for _, m := range ws.manifests {
		factories, err := m.Apply(ws.manager)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Source, err)
		}
		slog.Debug("applied manifest", "path", m.Source, "factories", len(factories))
		ws.factories = append(ws.factories, factories...)
	}
	return ws, nil
}

func (ws *workspace) lookup(name string) (*protocol.Type, error) {
	t, ok := ws.manager.Catalog().Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown type %s", name)
	}
	return t, nil
}
