// Package schema loads, validates and describes the table catalog.
//
// A catalog is written either as a CUE package (a directory with a
// top-level "table" struct) or as a YAML file. Load picks the format from
// the path, then runs Validate, which reports every problem with a stable
// E2xx code. BuildSchemaResponse and CapabilitiesFor render the catalog for
// the protocol's schema and capabilities endpoints.
package schema
