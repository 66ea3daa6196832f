package domain

import (
	"fmt"
	"slices"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// SetHash computes a deterministic identity hash for a package set. Identical
// sets always produce identical hashes; the encoding walks packages and
// attribute keys in sorted order with NUL separators between fields.
func SetHash(s *PackageSet) string {
	h := xxhash.New()
	for def := range s.Walk() {
		writeDef(h, def)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// CompositionKey derives the cache key for a composed set from the base set
// hash and the ordered overlay identities, name and content ID both. Order
// matters: [O1, O2] and [O2, O1] key different compositions.
func CompositionKey(baseHash string, overlays []Overlay) string {
	h := xxhash.New()
	_, _ = h.WriteString(baseHash)
	_, _ = h.Write([]byte{0})
	for _, ov := range overlays {
		_, _ = h.WriteString(ov.Name)
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(ov.ID)
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// BuildInputHash content-addresses one unit of build work: the package
// identity plus its fully-resolved attributes and dependency closure edge.
// Identical inputs never rebuild twice.
func BuildInputHash(pkg EnvPackage) string {
	h := xxhash.New()
	_, _ = h.WriteString(pkg.Name)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(pkg.Version)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(string(pkg.Source.Form))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(pkg.Source.Ref)
	_, _ = h.Write([]byte{0})
	writeAttrs(h, pkg.Attrs)
	for _, res := range pkg.ExternalResources {
		_, _ = h.WriteString(res)
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write([]byte{0})
	for _, dep := range pkg.DependsOn {
		_, _ = h.WriteString(dep)
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func writeDef(h *xxhash.Digest, def PackageDef) {
	_, _ = h.WriteString(def.Name.String())
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(def.Version)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(string(def.Source.Form))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(def.Source.Ref)
	_, _ = h.Write([]byte{0})
	writeDeps(h, def.BuildDeps)
	writeDeps(h, def.RunDeps)
	writeAttrs(h, def.Attrs)
	for _, res := range def.ExternalResources {
		_, _ = h.WriteString(res)
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write([]byte{0})
}

func writeDeps(h *xxhash.Digest, deps []Dependency) {
	for _, dep := range deps {
		_, _ = h.WriteString(dep.Name)
		_, _ = h.Write([]byte{'('})
		for _, p := range dep.Platforms {
			_, _ = h.WriteString(p)
			_, _ = h.Write([]byte{','})
		}
		_, _ = h.Write([]byte{')', 0})
	}
	_, _ = h.Write([]byte{0})
}

// writeAttrs hashes attributes in sorted key order for determinism.
func writeAttrs(h *xxhash.Digest, attrs map[string]Value) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		_, _ = h.WriteString(k)
		_, _ = h.Write([]byte{'='})
		writeValue(h, attrs[k])
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write([]byte{0})
}

func writeValue(h *xxhash.Digest, v Value) {
	switch val := v.(type) {
	case string:
		_, _ = h.WriteString(val)
	case []string:
		for _, s := range val {
			_, _ = h.WriteString(s)
			_, _ = h.Write([]byte{';'})
		}
	case map[string]string:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = h.WriteString(k)
			_, _ = h.Write([]byte{':'})
			_, _ = h.WriteString(val[k])
			_, _ = h.Write([]byte{';'})
		}
	default:
		_, _ = fmt.Fprintf(h, "%v", val)
	}
}
