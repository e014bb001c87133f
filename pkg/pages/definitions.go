// Package pages puts the catalog building blocks together into one page per
// resource: a searchable list, the add/edit dialog, delete confirmation,
// drag reordering and attachment management.
package pages

import (
	"fmt"
	"math"
	"strings"

	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/form"
	"github.com/shashiranjanraj/muestras/pkg/listview"
)

// Definition describes how one resource is listed and edited.
type Definition struct {
	Resource catalog.Resource
	// Title is the plural heading, Singular names one record in messages.
	Title    string
	Singular string
	Columns  []listview.Column
	Fields   []form.Field
	Empty    string
	// Filterable pages offer the active/inactive filter.
	Filterable bool
	// Refs maps a column key to the resource whose names it displays.
	Refs map[string]catalog.Resource
}

// Path is the console route of the page.
func (d Definition) Path() string { return "/" + string(d.Resource) }

// Status renders the activo flag.
func Status(v any, _ catalog.Item) string {
	if b, _ := v.(bool); b {
		return "active"
	}
	return "inactive"
}

// Approval renders the aprobado flag.
func Approval(v any, _ catalog.Item) string {
	if b, _ := v.(bool); b {
		return "approved"
	}
	return "pending"
}

// Presence renders "yes" for a stored attachment path and "-" otherwise.
func Presence(v any, _ catalog.Item) string {
	if s, _ := v.(string); s != "" {
		return "yes"
	}
	return "-"
}

// Count renders the length of a list attribute.
func Count(v any, _ catalog.Item) string {
	if l, ok := v.([]any); ok && len(l) > 0 {
		return fmt.Sprint(len(l))
	}
	return "-"
}

// Money renders a positive amount with two decimals after prefix.
func Money(prefix string) func(any, catalog.Item) string {
	return func(v any, _ catalog.Item) string {
		f, ok := number(v)
		if !ok || f == 0 {
			return "-"
		}
		return fmt.Sprintf("%s%.2f", prefix, f)
	}
}

// Percent renders a non-zero number followed by %.
func Percent(v any, _ catalog.Item) string {
	f, ok := number(v)
	if !ok || f == 0 {
		return "-"
	}
	return trimFloat(f) + "%"
}

// Numeric renders a non-zero number, "-" otherwise.
func Numeric(v any, _ catalog.Item) string {
	f, ok := number(v)
	if !ok || f == 0 {
		return "-"
	}
	return trimFloat(f)
}

func trimFloat(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%.0f", f)
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case interface{ Float64() (float64, error) }:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

var (
	nameField   = func(ph string) form.Field { return form.Text{Base: form.Base{Key: "nombre", Label: "Name", Required: true, Placeholder: ph}} }
	activeField = form.Switch{Base: form.Base{Key: "activo", Label: "Status"}, Default: true}
	descField   = func(ph string) form.Field {
		return form.TextArea{Base: form.Base{Key: "descripcion", Label: "Description", Placeholder: ph}}
	}
	approvedField = form.Switch{Base: form.Base{Key: "aprobado", Label: "Approved"}, OnLabel: "Approved", OffLabel: "Pending"}

	nameCol     = listview.Column{Key: "nombre", Label: "Name"}
	activeCol   = listview.Column{Key: "activo", Label: "Status", Render: Status}
	approvedCol = listview.Column{Key: "aprobado", Label: "Approved", Render: Approval}
	descCol     = listview.Column{Key: "descripcion", Label: "Description"}
)

func simple(r catalog.Resource, title, singular, placeholder, empty string) Definition {
	return Definition{
		Resource:   r,
		Title:      title,
		Singular:   singular,
		Columns:    []listview.Column{nameCol, activeCol},
		Fields:     []form.Field{nameField(placeholder), activeField},
		Empty:      empty,
		Filterable: true,
	}
}

var definitions = []Definition{
	simple(catalog.Brands, "Brands", "Brand", "e.g. Nike, Adidas...", "No brands yet"),
	simple(catalog.ProductTypes, "Product types", "Product type", "e.g. T-shirt, Trousers, Dress...", "No product types yet"),
	{
		Resource: catalog.Fits,
		Title:    "Fits",
		Singular: "Fit",
		Columns:  []listview.Column{nameCol, descCol, activeCol},
		Fields: []form.Field{
			nameField("e.g. Regular, Slim Fit, Oversize..."),
			descField("Describe the fit..."),
			activeField,
		},
		Empty:      "No fits yet",
		Filterable: true,
	},
	{
		Resource: catalog.Fabrics,
		Title:    "Fabrics",
		Singular: "Fabric",
		Columns: []listview.Column{
			nameCol,
			{Key: "gramaje", Label: "Weight", Render: Numeric},
			{Key: "proveedor", Label: "Supplier"},
			{Key: "color", Label: "Colour"},
			{Key: "clasificacion", Label: "Classification"},
			{Key: "precio", Label: "Price", Render: Money("S/ ")},
		},
		Fields: []form.Field{
			nameField("Fabric name"),
			form.Number{Base: form.Base{Key: "gramaje", Label: "Weight (oz)", Placeholder: "e.g. 11"}, Step: 0.1},
			form.Text{Base: form.Base{Key: "elasticidad", Label: "Stretch", Placeholder: "e.g. 2%, 5%"}},
			form.Text{Base: form.Base{Key: "proveedor", Label: "Supplier", Placeholder: "e.g. RICHATEX, COLORTEX"}},
			form.Number{Base: form.Base{Key: "ancho", Label: "Width (cm)", Placeholder: "e.g. 150"}, Step: 0.1},
			form.Select{Base: form.Base{Key: "color", Label: "Colour"}, Options: []form.Option{
				{Value: "Azul", Label: "Blue"},
				{Value: "Negro", Label: "Black"},
				{Value: "Color", Label: "Colour"},
				{Value: "Crudo", Label: "Raw"},
			}},
			form.Text{Base: form.Base{Key: "clasificacion", Label: "Classification"}},
			form.Number{Base: form.Base{Key: "precio", Label: "Price", Placeholder: "0.00"}, Step: 0.01},
			activeField,
		},
		Empty:      "No fabrics yet",
		Filterable: true,
	},
	simple(catalog.Threads, "Threads", "Thread", "e.g. Polyester, Cotton...", "No threads yet"),
	{
		Resource: catalog.BaseSamples,
		Title:    "Base samples",
		Singular: "Base sample",
		Columns: []listview.Column{
			nameCol,
			{Key: "costo_estimado", Label: "Cost", Render: Money("$")},
			{Key: "precio_estimado", Label: "Price", Render: Money("$")},
			{Key: "rentabilidad_esperada", Label: "Margin", Render: Percent},
			approvedCol,
			activeCol,
		},
		Fields: []form.Field{
			nameField("Sample name"),
			form.Select{Base: form.Base{Key: "marca_id", Label: "Brand"}, Source: catalog.Brands},
			form.Select{Base: form.Base{Key: "tipo_producto_id", Label: "Product type"}, Source: catalog.ProductTypes},
			form.Select{Base: form.Base{Key: "entalle_id", Label: "Fit"}, Source: catalog.Fits},
			form.Select{Base: form.Base{Key: "tela_id", Label: "Fabric"}, Source: catalog.Fabrics},
			form.Number{Base: form.Base{Key: "consumo_tela", Label: "Fabric usage"}, Step: 0.01},
			form.Number{Base: form.Base{Key: "costo_estimado", Label: "Estimated cost"}, Step: 0.01},
			form.Number{Base: form.Base{Key: "precio_estimado", Label: "Estimated price"}, Step: 0.01},
			form.Number{Base: form.Base{Key: "rentabilidad_esperada", Label: "Expected margin (%)"}, Step: 0.1},
			descField(""),
			approvedField,
			activeField,
		},
		Empty:      "No base samples yet",
		Filterable: true,
	},
	{
		Resource: catalog.Bases,
		Title:    "Bases",
		Singular: "Base",
		Columns: []listview.Column{
			nameCol,
			{Key: "patron_archivo", Label: "Pattern", Render: Presence},
			{Key: "imagen_archivo", Label: "Image", Render: Presence},
			{Key: "fichas_archivos", Label: "Sheets", Render: Count},
			{Key: "tizados_archivos", Label: "Layouts", Render: Count},
			approvedCol,
			activeCol,
		},
		Fields: []form.Field{
			nameField("Base name"),
			form.Select{Base: form.Base{Key: "muestra_base_id", Label: "Base sample"}, Source: catalog.BaseSamples},
			descField(""),
			approvedField,
			activeField,
		},
		Empty:      "No bases yet",
		Filterable: true,
	},
	{
		Resource: catalog.Sheets,
		Title:    "Sheets",
		Singular: "Sheet",
		Columns: []listview.Column{
			nameCol,
			{Key: "archivo", Label: "File", Render: Presence},
			activeCol,
		},
		Fields:     []form.Field{nameField("Sheet name"), descField(""), activeField},
		Empty:      "No sheets yet",
		Filterable: true,
	},
	{
		Resource: catalog.CuttingLayouts,
		Title:    "Cutting layouts",
		Singular: "Cutting layout",
		Columns: []listview.Column{
			nameCol,
			{Key: "ancho", Label: "Width", Render: Numeric},
			{Key: "curva", Label: "Size run"},
			{Key: "archivo_tizado", Label: "File", Render: Presence},
			activeCol,
		},
		Fields: []form.Field{
			nameField("Layout name"),
			form.Number{Base: form.Base{Key: "ancho", Label: "Width (cm)"}, Step: 0.1},
			form.Text{Base: form.Base{Key: "curva", Label: "Size run", Placeholder: "e.g. S-M-L-XL"}},
			descField(""),
			activeField,
		},
		Empty:      "No cutting layouts yet",
		Filterable: true,
	},
	{
		Resource: catalog.Models,
		Title:    "Models",
		Singular: "Model",
		Columns: []listview.Column{
			nameCol,
			{Key: "base_id", Label: "Base"},
			{Key: "hilo_id", Label: "Thread"},
			{Key: "fichas_archivos", Label: "Sheets", Render: Count},
			approvedCol,
		},
		Fields: []form.Field{
			nameField("Model name"),
			form.Select{Base: form.Base{Key: "base_id", Label: "Base", Required: true}, Source: catalog.Bases},
			form.Select{Base: form.Base{Key: "hilo_id", Label: "Thread"}, Source: catalog.Threads},
			approvedField,
		},
		Empty: "No models yet",
		Refs:  map[string]catalog.Resource{"base_id": catalog.Bases, "hilo_id": catalog.Threads},
	},
	{
		Resource: catalog.SewingStates,
		Title:    "Sewing states",
		Singular: "Sewing state",
		Columns:  []listview.Column{nameCol},
		Fields:   []form.Field{nameField("")},
		Empty:    "No sewing states yet",
	},
	{
		Resource: catalog.Users,
		Title:    "Users",
		Singular: "User",
		Columns: []listview.Column{
			{Key: "username", Label: "Username"},
			{Key: "nombre_completo", Label: "Full name"},
			{Key: "rol", Label: "Role"},
			activeCol,
		},
		Fields: []form.Field{
			form.Text{Base: form.Base{Key: "username", Label: "Username", Required: true}},
			form.Text{Base: form.Base{Key: "nombre_completo", Label: "Full name"}},
			form.Password{Base: form.Base{Key: "password", Label: "Password"}, RequiredOnCreate: true},
			form.Select{Base: form.Base{Key: "rol", Label: "Role"}, Default: "usuario", Options: []form.Option{
				{Value: "usuario", Label: "User"},
				{Value: catalog.RoleAdmin, Label: "Administrator"},
			}},
		},
		Empty: "No users yet",
	},
}

// Definitions returns every page in menu order.
func Definitions() []Definition {
	return append([]Definition(nil), definitions...)
}

// Lookup finds the page of r.
func Lookup(r catalog.Resource) (Definition, bool) {
	for _, d := range definitions {
		if d.Resource == r {
			return d, true
		}
	}
	return Definition{}, false
}

// Visible returns the pages a user may open.
func Visible(u catalog.User) []Definition {
	out := make([]Definition, 0, len(definitions))
	for _, d := range definitions {
		if d.Resource.AdminOnly() && !u.IsAdmin() {
			continue
		}
		out = append(out, d)
	}
	return out
}
