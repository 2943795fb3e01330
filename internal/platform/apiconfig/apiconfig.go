// Package apiconfig builds the huma configuration shared by the service and
// its tests.
package apiconfig

import (
	"bytes"
	"encoding/json"
	"io"
	"maps"

	"github.com/danielgtaylor/huma/v2"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
)

// CompactJSON encodes without a trailing newline and without HTML escaping,
// so response bodies are exactly the marshaled value.
var CompactJSON = huma.Format{
	Marshal: func(w io.Writer, v any) error {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return err
		}
		_, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
		return err
	},
	Unmarshal: json.Unmarshal,
}

// New returns a huma config that serves no documentation routes and adds no
// $schema fields or Link headers. JSON stays the default format; CBOR is
// available through Accept negotiation.
func New(title, version string) huma.Config {
	cfg := huma.DefaultConfig(title, version)
	cfg.OpenAPIPath = ""
	cfg.DocsPath = ""
	cfg.SchemasPath = ""
	cfg.CreateHooks = nil
	cfg.Transformers = nil

	cfg.Formats = maps.Clone(cfg.Formats)
	cfg.Formats["application/json"] = CompactJSON
	cfg.Formats["json"] = CompactJSON
	return cfg
}

// AdvertiseCBOR mirrors every JSON request and response schema under
// application/cbor in the generated OpenAPI document. Call before
// registering operations.
func AdvertiseCBOR(api huma.API) {
	oapi := api.OpenAPI()
	oapi.OnAddOperation = append(oapi.OnAddOperation, func(_ *huma.OpenAPI, op *huma.Operation) {
		if op.RequestBody != nil && op.RequestBody.Content != nil {
			if c, ok := op.RequestBody.Content["application/json"]; ok {
				op.RequestBody.Content["application/cbor"] = c
			}
		}
		for _, resp := range op.Responses {
			if resp.Content == nil {
				continue
			}
			if c, ok := resp.Content["application/json"]; ok {
				resp.Content["application/cbor"] = c
			}
		}
	})
}
