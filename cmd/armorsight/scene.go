package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/chazu/armorsight/pkg/mesh"
	"github.com/chazu/armorsight/pkg/plate"
	"github.com/chazu/armorsight/pkg/viewer"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// sceneFile is the JSON form of a scene, for input and output.
type sceneFile struct {
	View   string      `json:"view,omitempty"`
	Meshes []mesh.Data `json:"meshes"`
}

type scene struct {
	view   string
	meshes []*mesh.Mesh
}

func loadScene(path string) (*scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	var f sceneFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	sc := &scene{view: f.View}
	for i := range f.Meshes {
		m, err := mesh.FromData(&f.Meshes[i])
		if err != nil {
			return nil, fmt.Errorf("scene %s: mesh %d: %w", path, i, err)
		}
		if m.ID == "" {
			m.ID = fmt.Sprintf("mesh-%d", i)
		}
		sc.meshes = append(sc.meshes, m)
	}
	return sc, nil
}

func encodeScene(w io.Writer, view viewer.View, meshes []*mesh.Mesh) error {
	f := sceneFile{View: view.String(), Meshes: make([]mesh.Data, len(meshes))}
	for i, m := range meshes {
		f.Meshes[i] = *m.ToData()
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("scene: encode: %w", err)
	}
	return nil
}

// demoCells is the marching cubes resolution of the demo mantlet.
const demoCells = 12

// demoScene is a small tank: a hull, a turret on top of it, a gun
// mantlet in front of the turret and a sloped glacis plate.
func demoScene() (*scene, error) {
	mantlet, err := plate.Slab(v3.Vec{X: 0.4, Y: 0.6, Z: 1}, v3.Vec{X: 4, Y: 2.2, Z: 1}, v3.Vec{})
	if err != nil {
		return nil, err
	}
	return &scene{
		view: viewer.Side.String(),
		meshes: []*mesh.Mesh{
			plate.Box("hull", v3.Vec{}, v3.Vec{X: 6, Y: 2, Z: 3}),
			plate.Box("turret", v3.Vec{X: 2, Y: 2, Z: 0.5}, v3.Vec{X: 4, Y: 3, Z: 2.5}),
			plate.FromSDF("mantlet", mantlet, demoCells),
			plate.Quad("glacis",
				v3.Vec{X: 6, Y: 0, Z: 0}, v3.Vec{X: 7.5, Y: 1, Z: 0},
				v3.Vec{X: 7.5, Y: 1, Z: 3}, v3.Vec{X: 6, Y: 0, Z: 3}),
		},
	}, nil
}
