package krpcgen

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kladd/krpc-client/internal/schema"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// render runs a generated *jen.File through its own formatter, the
// same check a go build would ultimately perform, and returns the
// source as a string for substring assertions.
func render(t *testing.T, def schema.ServiceDefJSON) string {
	t.Helper()
	f := GenerateService("TestService", def)
	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf))
	return buf.String()
}

func TestGenerateServiceEmitsConstructor(t *testing.T) {
	src := render(t, schema.ServiceDefJSON{})
	assert.Contains(t, src, "type TestService struct")
	assert.Contains(t, src, "func NewTestService(")
}

func TestGenerateServiceEmitsClassHandle(t *testing.T) {
	def := schema.ServiceDefJSON{
		Classes: map[string]schema.ClassDefJSON{"Vessel": {}},
	}
	src := render(t, def)
	assert.Contains(t, src, "type Vessel struct")
	assert.Contains(t, src, "ClassHandle")
	assert.Contains(t, src, "func newVessel(")
}

func TestGenerateServiceEmitsEnum(t *testing.T) {
	def := schema.ServiceDefJSON{
		Enumerations: map[string]schema.EnumDefJSON{
			"VesselType": {
				Values: []schema.EnumValueDefJSON{
					{Name: "Ship", Value: 0},
					{Name: "Station", Value: 1},
				},
			},
		},
	}
	src := render(t, def)
	assert.Contains(t, src, "type VesselType int32")
	assert.Contains(t, src, "VesselType_Ship")
	assert.Contains(t, src, "VesselType_Station")
	assert.Contains(t, src, "VesselType_validValues")
}

// receiverInference pins §4.6's split-on-underscore rule: a procedure
// whose first segment is capitalized is emitted as a method on that
// class, everything else lands on the service struct.
func TestReceiverInference(t *testing.T) {
	class, method := receiver("Vessel_GetName")
	assert.Equal(t, "Vessel", class)
	assert.Equal(t, "get_name", method)

	class, method = receiver("get_active_vessel")
	assert.Equal(t, "", class)
	assert.Equal(t, "get_active_vessel", method)
}

func TestGenerateProcedureMethodOnClass(t *testing.T) {
	def := schema.ServiceDefJSON{
		Classes: map[string]schema.ClassDefJSON{"Vessel": {}},
		Procedures: map[string]schema.ProcDefJSON{
			"Vessel_GetName": {
				Parameters: []schema.ParamDefJSON{
					{Name: "this", Type: schema.TypeDefJSON{Code: "CLASS", Name: "Vessel"}},
				},
				ReturnType: &schema.TypeDefJSON{Code: "STRING"},
			},
		},
	}
	src := render(t, def)
	assert.Contains(t, src, "func (c *Vessel) GetName() (string, error)")
	assert.Contains(t, src, "func (c *Vessel) GetNameCall()")
	assert.Contains(t, src, "func (c *Vessel) GetNameStream()")
	assert.NotContains(t, src, "this string")
}

func TestGenerateProcedureVoidReturn(t *testing.T) {
	def := schema.ServiceDefJSON{
		Procedures: map[string]schema.ProcDefJSON{
			"set_paused": {
				Parameters: []schema.ParamDefJSON{
					{Name: "paused", Type: schema.TypeDefJSON{Code: "BOOL"}},
				},
			},
		},
	}
	src := render(t, def)
	assert.Contains(t, src, "func (s *TestService) SetPaused(paused bool) error")
}

func TestGenerateProcedureListReturn(t *testing.T) {
	def := schema.ServiceDefJSON{
		Procedures: map[string]schema.ProcDefJSON{
			"list_resources": {
				ReturnType: &schema.TypeDefJSON{
					Code:  "LIST",
					Types: []schema.TypeDefJSON{{Code: "STRING"}},
				},
			},
		},
	}
	src := render(t, def)
	assert.Contains(t, src, "func (s *TestService) ListResources() ([]string, error)")
	assert.Contains(t, src, "*krpc.Stream[[]string]")
	assert.Contains(t, src, "DecodeListArg")
}

func TestGenerateProcedureDictionaryParameter(t *testing.T) {
	def := schema.ServiceDefJSON{
		Procedures: map[string]schema.ProcDefJSON{
			"set_tags": {
				Parameters: []schema.ParamDefJSON{
					{
						Name: "tags",
						Type: schema.TypeDefJSON{
							Code:  "DICTIONARY",
							Types: []schema.TypeDefJSON{{Code: "STRING"}, {Code: "SINT32"}},
						},
					},
				},
			},
		},
	}
	src := render(t, def)
	assert.Contains(t, src, "tags map[string]int32")
	assert.Contains(t, src, "EncodeDictArg")
}

func TestGenerateProcedureTupleReturn(t *testing.T) {
	def := schema.ServiceDefJSON{
		Procedures: map[string]schema.ProcDefJSON{
			"get_position": {
				ReturnType: &schema.TypeDefJSON{
					Code: "TUPLE",
					Types: []schema.TypeDefJSON{
						{Code: "DOUBLE"}, {Code: "DOUBLE"}, {Code: "DOUBLE"},
					},
				},
			},
		},
	}
	src := render(t, def)
	assert.Contains(t, src, "Tuple3[float64, float64, float64]")
	assert.Contains(t, src, "*krpc.Stream[krpc.Tuple3[float64, float64, float64]]")
	assert.Contains(t, src, "DecodeTuple3Arg")
}

func TestGenerateProcedureClassReturnUsesConstructor(t *testing.T) {
	def := schema.ServiceDefJSON{
		Classes: map[string]schema.ClassDefJSON{"Vessel": {}},
		Procedures: map[string]schema.ProcDefJSON{
			"get_active_vessel": {
				ReturnType: &schema.TypeDefJSON{Code: "CLASS", Name: "Vessel"},
			},
		},
	}
	src := render(t, def)
	assert.Contains(t, src, "func (s *TestService) GetActiveVessel() (*Vessel, error)")
	assert.Contains(t, src, "newVessel(")
}

func TestGenerateProcedureStatusReturn(t *testing.T) {
	def := schema.ServiceDefJSON{
		Procedures: map[string]schema.ProcDefJSON{
			"get_status": {
				ReturnType: &schema.TypeDefJSON{Code: "STATUS"},
			},
		},
	}
	src := render(t, def)
	assert.Contains(t, src, "func (s *TestService) GetStatus() (schema.Status, error)")
	assert.Contains(t, src, "*krpc.Stream[schema.Status]")
	assert.Contains(t, src, "DecodeMessageArg[schema.Status, *schema.Status]")
}

func TestGenerateProcedureServicesReturn(t *testing.T) {
	def := schema.ServiceDefJSON{
		Procedures: map[string]schema.ProcDefJSON{
			"get_services": {
				ReturnType: &schema.TypeDefJSON{Code: "SERVICES"},
			},
		},
	}
	src := render(t, def)
	assert.Contains(t, src, "func (s *TestService) GetServices() (schema.Services, error)")
	assert.Contains(t, src, "DecodeMessageArg[schema.Services, *schema.Services]")
}

func TestGenerateProcedureNullableReturnWrapsOptional(t *testing.T) {
	def := schema.ServiceDefJSON{
		Procedures: map[string]schema.ProcDefJSON{
			"get_name_tag": {
				ReturnType:       &schema.TypeDefJSON{Code: "STRING"},
				ReturnIsNullable: true,
			},
		},
	}
	src := render(t, def)
	assert.Contains(t, src, "func (s *TestService) GetNameTag() (*string, error)")
	assert.Contains(t, src, "DecodeOptionalArg")
	assert.Contains(t, src, "*krpc.Stream[*string]")
}

func TestGenerateProcedureNullableClassParam(t *testing.T) {
	def := schema.ServiceDefJSON{
		Classes: map[string]schema.ClassDefJSON{"Vessel": {}},
		Procedures: map[string]schema.ProcDefJSON{
			"set_target": {
				Parameters: []schema.ParamDefJSON{
					{Name: "vessel", Type: schema.TypeDefJSON{Code: "CLASS", Name: "Vessel"}, Nullable: true},
				},
			},
		},
	}
	src := render(t, def)
	assert.Contains(t, src, "vessel *Vessel")
	assert.Contains(t, src, "EncodeClassArg")
	assert.Contains(t, src, "true")
}

func TestGenerateProcedureNonNullableClassParamUsesEncodeClassArg(t *testing.T) {
	def := schema.ServiceDefJSON{
		Classes: map[string]schema.ClassDefJSON{"Vessel": {}},
		Procedures: map[string]schema.ProcDefJSON{
			"dock_with": {
				Parameters: []schema.ParamDefJSON{
					{Name: "vessel", Type: schema.TypeDefJSON{Code: "CLASS", Name: "Vessel"}},
				},
			},
		},
	}
	src := render(t, def)
	assert.Contains(t, src, "EncodeClassArg(v.ClassHandle, false)")
}

func TestLoadCatalogueMergesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"SpaceCenter": {"procedures": {}}}`)
	writeFile(t, dir, "b.json", `{"KRPC": {"procedures": {}}}`)

	services, err := LoadCatalogue(dir)
	require.NoError(t, err)
	assert.Len(t, services, 2)
	assert.Contains(t, services, "SpaceCenter")
	assert.Contains(t, services, "KRPC")
}

func TestLoadCatalogueToleratesMissingKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"SpaceCenter": {}}`)

	services, err := LoadCatalogue(dir)
	require.NoError(t, err)
	def := services["SpaceCenter"]
	assert.Empty(t, def.Classes)
	assert.Empty(t, def.Enumerations)
	assert.Empty(t, def.Procedures)
}
