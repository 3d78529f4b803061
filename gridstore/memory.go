/*
Copyright © 2025 the forestcarbon authors.
This file is part of forestcarbon.

forestcarbon is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

forestcarbon is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with forestcarbon.  If not, see <http://www.gnu.org/licenses/>.
*/

package gridstore

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spatialmodel/forestcarbon"
)

// Memory is a GridStore that holds everything in memory.
type Memory struct {
	mu      sync.RWMutex
	Grids   map[string]*forestcarbon.Grid
	Regions map[string][]forestcarbon.Region
	Lists   map[string][]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		Grids:   make(map[string]*forestcarbon.Grid),
		Regions: make(map[string][]forestcarbon.Region),
		Lists:   make(map[string][]string),
	}
}

func notFound(kind, name string) error {
	return &forestcarbon.MissingInputError{
		Kind: kind,
		Name: name,
		Err:  fmt.Errorf("gridstore: %s %s not in memory: %w", kind, name, os.ErrNotExist),
	}
}

// LoadGrid implements forestcarbon.GridStore.
func (m *Memory) LoadGrid(ctx context.Context, name string) (*forestcarbon.Grid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.Grids[name]
	if !ok {
		return nil, notFound("grid", name)
	}
	return g, nil
}

// SaveGrid implements forestcarbon.GridStore.
func (m *Memory) SaveGrid(ctx context.Context, name string, g *forestcarbon.Grid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Grids[name] = g
	return nil
}

// LoadRegions implements forestcarbon.GridStore.
func (m *Memory) LoadRegions(ctx context.Context, name string) ([]forestcarbon.Region, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.Regions[name]
	if !ok {
		return nil, notFound("regions", name)
	}
	return r, nil
}

// SaveRegions implements forestcarbon.RegionSaver.
func (m *Memory) SaveRegions(ctx context.Context, name string, regions []forestcarbon.Region) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Regions[name] = regions
	return nil
}

// LoadNameList implements forestcarbon.GridStore.
func (m *Memory) LoadNameList(ctx context.Context, name string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.Lists[name]
	if !ok {
		return nil, notFound("list", name)
	}
	return l, nil
}
