package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/asakaida/mdschema/internal/entities"
	"github.com/asakaida/mdschema/internal/services/parser"
	"github.com/asakaida/mdschema/internal/services/resolver"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// conceptOf returns the concept or "-" when the attribute has none
func conceptOf(c *resolver.Catalogue, name string) (string, error) {
	concept, err := c.Concept(name)
	if errors.Is(err, entities.ErrComplaint) {
		return "-", nil
	}
	return concept, err
}

func aliasesOf(c *resolver.Catalogue, name string) (string, error) {
	aliases, err := c.Aliases(name)
	if err != nil {
		return "", err
	}
	if len(aliases) == 0 {
		return "-", nil
	}
	return strings.Join(aliases, ","), nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func renderSummary(w io.Writer, name string, schema *resolver.Schema) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "schema %s\n\n", name)

	fmt.Fprintln(tw, "COLLECTION\tATTRIBUTES\tDEFAULT FOR")
	defaults := map[string][]string{}
	for key, collection := range schema.Storage.Defaults().Designations() {
		defaults[collection] = append(defaults[collection], key)
	}
	for _, collection := range schema.Storage.Collections() {
		c, err := schema.Storage.Collection(collection)
		if err != nil {
			return err
		}
		keys := defaults[collection]
		sort.Strings(keys)
		fmt.Fprintf(tw, "%s\t%d\t%s\n", collection, c.Len(), dash(strings.Join(keys, ",")))
	}

	fmt.Fprintln(tw, "\nVIEW\tATTRIBUTES\tREADONLY")
	for _, view := range schema.Views.Views() {
		v, err := schema.Views.View(view)
		if err != nil {
			return err
		}
		readonly := 0
		for _, key := range v.Keys() {
			ro, err := v.Readonly(key)
			if err != nil {
				return err
			}
			if ro {
				readonly++
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\n", view, v.Len(), readonly)
	}
	return tw.Flush()
}

func renderCollection(w io.Writer, c *resolver.StorageCatalogue) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "collection %s\n\n", c.Name())
	fmt.Fprintln(tw, "ATTRIBUTE\tTYPE\tOPTIONAL\tREFERENCE\tALIASES\tCONCEPT")
	for _, key := range c.Keys() {
		typ, err := c.Type(key)
		if err != nil {
			return err
		}
		optional, err := c.IsOptional(key)
		if err != nil {
			return err
		}
		reference, err := c.Reference(key)
		if err != nil {
			return err
		}
		if reference == c.Name() {
			reference = ""
		}
		aliases, err := aliasesOf(c.Catalogue, key)
		if err != nil {
			return err
		}
		concept, err := conceptOf(c.Catalogue, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\t%s\n", key, typ, optional, dash(reference), aliases, concept)
	}
	return tw.Flush()
}

func renderView(w io.Writer, v *resolver.ViewCatalogue) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "view %s\n\n", v.Name())
	fmt.Fprintln(tw, "ATTRIBUTE\tTYPE\tREADONLY\tCOLLECTION\tALIASES\tCONCEPT")
	for _, key := range v.Keys() {
		typ, err := v.Type(key)
		if err != nil {
			return err
		}
		readonly, err := v.Readonly(key)
		if err != nil {
			return err
		}
		collection, err := v.Collection(key)
		if err != nil {
			return err
		}
		aliases, err := aliasesOf(v.Catalogue, key)
		if err != nil {
			return err
		}
		concept, err := conceptOf(v.Catalogue, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\t%s\n", key, typ, readonly, dash(collection), aliases, concept)
	}
	return tw.Flush()
}

// renderAttribute prints the properties shared by storage and view attributes
// followed by the extra rows
func renderAttribute(w io.Writer, c *resolver.Catalogue, attr string, extra [][2]string) error {
	name, err := c.UniqueName(attr)
	if err != nil {
		return err
	}
	typ, err := c.Type(name)
	if err != nil {
		return err
	}
	optional, err := c.IsOptional(name)
	if err != nil {
		return err
	}
	aliases, err := aliasesOf(c, name)
	if err != nil {
		return err
	}
	concept, err := conceptOf(c, name)
	if err != nil {
		return err
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "name:\t%s\n", name)
	if name != attr {
		fmt.Fprintf(tw, "alias:\t%s\n", attr)
	}
	fmt.Fprintf(tw, "type:\t%s\n", typ)
	fmt.Fprintf(tw, "concept:\t%s\n", concept)
	fmt.Fprintf(tw, "aliases:\t%s\n", aliases)
	fmt.Fprintf(tw, "optional:\t%t\n", optional)
	for _, row := range extra {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}

func renderStorageAttribute(w io.Writer, c *resolver.StorageCatalogue, attr string) error {
	reference, err := c.Reference(attr)
	if err != nil {
		return err
	}
	return renderAttribute(w, c.Catalogue, attr, [][2]string{{"reference", reference}})
}

func renderViewAttribute(w io.Writer, v *resolver.ViewCatalogue, attr string) error {
	collection, err := v.Collection(attr)
	if err != nil {
		return err
	}
	readonly, err := v.Readonly(attr)
	if err != nil {
		return err
	}
	return renderAttribute(w, v.Catalogue, attr, [][2]string{
		{"collection", dash(collection)},
		{"readonly", fmt.Sprintf("%t", readonly)},
	})
}

func renderVersions(w io.Writer, versions []*entities.SchemaVersion) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "VERSION\tCREATED")
	for _, v := range versions {
		created := "-"
		if !v.CreatedAt.IsZero() {
			created = v.CreatedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\n", v.Version, created)
	}
	return tw.Flush()
}

// resolvedDocument lays out every resolved descriptor like a schema document
func resolvedDocument(schema *resolver.Schema) (map[string]interface{}, error) {
	storage := map[string]interface{}{}
	for _, name := range schema.Storage.Collections() {
		c, err := schema.Storage.Collection(name)
		if err != nil {
			return nil, err
		}
		attrs, err := catalogueDocument(c.Catalogue)
		if err != nil {
			return nil, err
		}
		storage[name] = map[string]interface{}{"schema": attrs}
	}

	views := map[string]interface{}{}
	for _, name := range schema.Views.Views() {
		v, err := schema.Views.View(name)
		if err != nil {
			return nil, err
		}
		attrs, err := catalogueDocument(v.Catalogue)
		if err != nil {
			return nil, err
		}
		views[name] = map[string]interface{}{"schema": attrs}
	}

	defaults := map[string]interface{}{}
	for key, collection := range schema.Storage.Defaults().Designations() {
		defaults[key] = collection
	}

	return map[string]interface{}{
		entities.NamespaceDatabase: storage,
		entities.NamespaceMetadata: views,
		"defaults":                 defaults,
	}, nil
}

func catalogueDocument(c *resolver.Catalogue) (map[string]interface{}, error) {
	out := make(map[string]interface{}, c.Len())
	for _, key := range c.Keys() {
		d, err := c.Descriptor(key)
		if err != nil {
			return nil, err
		}
		out[key] = parser.DescriptorToDocument(d)
	}
	return out, nil
}

func renderYAML(w io.Writer, schema *resolver.Schema) error {
	doc, err := resolvedDocument(schema)
	if err != nil {
		return err
	}
	out, err := parser.NewGenerator().GenerateValue(doc)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
