package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Resource identifies one backend collection.
type Resource string

const (
	Brands         Resource = "brands"
	ProductTypes   Resource = "product-types"
	Fits           Resource = "fits"
	Fabrics        Resource = "fabrics"
	Threads        Resource = "threads"
	BaseSamples    Resource = "base-samples"
	Bases          Resource = "bases"
	Sheets         Resource = "sheets"
	CuttingLayouts Resource = "cutting-layouts"
	Models         Resource = "models"
	SewingStates   Resource = "sewing-states"
	Users          Resource = "users"
)

// Asset is an attachment slot of a resource, uploaded through
// POST /api/{resource}/{id}/{Name}.
type Asset struct {
	Name string
	// Field is the multipart field the backend reads.
	Field string
	// Multi assets hold a list; single assets are replaced on upload.
	Multi bool
	// Key is the item attribute holding the stored path(s).
	Key string
	// Named assets accept an optional display name per file.
	Named bool
}

type resourceInfo struct {
	statKey     string
	reorderable bool
	adminOnly   bool
	assets      []Asset
}

var resources = map[Resource]resourceInfo{
	Brands:       {statKey: "brands", reorderable: true},
	ProductTypes: {statKey: "product_types", reorderable: true},
	Fits:         {statKey: "fits"},
	Fabrics:      {statKey: "fabrics"},
	Threads:      {statKey: "threads"},
	BaseSamples: {statKey: "base_samples", assets: []Asset{
		{Name: "file", Field: "file", Key: "archivo"},
	}},
	Bases: {statKey: "bases", assets: []Asset{
		{Name: "pattern", Field: "file", Key: "patron_archivo"},
		{Name: "image", Field: "file", Key: "imagen_archivo"},
		{Name: "sheets", Field: "files", Multi: true, Key: "fichas_archivos"},
		{Name: "layouts", Field: "files", Multi: true, Key: "tizados_archivos"},
	}},
	Sheets: {statKey: "sheets", assets: []Asset{
		{Name: "file", Field: "file", Key: "archivo"},
	}},
	CuttingLayouts: {statKey: "cutting_layouts", assets: []Asset{
		{Name: "file", Field: "file", Key: "archivo_tizado"},
	}},
	Models: {statKey: "models", assets: []Asset{
		{Name: "sheets", Field: "files", Multi: true, Key: "fichas_archivos", Named: true},
	}},
	SewingStates: {statKey: "sewing_states", reorderable: true},
	Users:        {statKey: "users", adminOnly: true},
}

// All returns every resource in a stable order.
func All() []Resource {
	out := make([]Resource, 0, len(resources))
	for r := range resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Lookup parses a resource key. Underscored stat keys are accepted too.
func Lookup(key string) (Resource, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	if _, ok := resources[Resource(k)]; ok {
		return Resource(k), nil
	}
	for r, info := range resources {
		if info.statKey == k {
			return r, nil
		}
	}
	return "", fmt.Errorf("catalog: unknown resource %q", key)
}

func (r Resource) String() string { return string(r) }

// Valid reports whether r is a known resource.
func (r Resource) Valid() bool {
	_, ok := resources[r]
	return ok
}

// StatKey is the key the dashboard stats endpoint uses for r.
func (r Resource) StatKey() string { return resources[r].statKey }

// Reorderable reports whether the backend accepts PUT /api/{r}/reorder.
func (r Resource) Reorderable() bool { return resources[r].reorderable }

// AdminOnly reports whether r is restricted to the admin role.
func (r Resource) AdminOnly() bool { return resources[r].adminOnly }

// Assets lists the attachment slots of r.
func (r Resource) Assets() []Asset { return resources[r].assets }

// Asset finds an attachment slot by name.
func (r Resource) Asset(name string) (Asset, error) {
	for _, a := range resources[r].assets {
		if a.Name == name {
			return a, nil
		}
	}
	return Asset{}, fmt.Errorf("catalog: %s has no asset %q", r, name)
}
