package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestSchemaFor_StringSlice(t *testing.T) {
	var out []string
	schema, err := schemaFor(&out)
	require.NoError(t, err)

	assert.Equal(t, genai.TypeArray, schema.Type)
	require.NotNil(t, schema.Items)
	assert.Equal(t, genai.TypeString, schema.Items.Type)
}

func TestSchemaFor_Struct(t *testing.T) {
	type analysis struct {
		Title    string   `json:"title"`
		Score    float64  `json:"score"`
		Words    int      `json:"words"`
		Keywords []string `json:"keywords"`
		internal string   //nolint:unused // exercises unexported-field skipping
	}

	var out analysis
	schema, err := schemaFor(&out)
	require.NoError(t, err)

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Len(t, schema.Properties, 4)
	assert.Equal(t, genai.TypeString, schema.Properties["title"].Type)
	assert.Equal(t, genai.TypeNumber, schema.Properties["score"].Type)
	assert.Equal(t, genai.TypeInteger, schema.Properties["words"].Type)
	assert.Equal(t, genai.TypeArray, schema.Properties["keywords"].Type)
	assert.ElementsMatch(t, []string{"title", "score", "words", "keywords"}, schema.Required)
}

func TestSchemaFor_NestedStruct(t *testing.T) {
	type inner struct {
		Name string `json:"name"`
	}
	type outer struct {
		Items []inner `json:"items"`
	}

	var out outer
	schema, err := schemaFor(&out)
	require.NoError(t, err)

	items := schema.Properties["items"]
	require.NotNil(t, items)
	assert.Equal(t, genai.TypeArray, items.Type)
	assert.Equal(t, genai.TypeObject, items.Items.Type)
	assert.Equal(t, genai.TypeString, items.Items.Properties["name"].Type)
}

func TestSchemaFor_SkipsDashTag(t *testing.T) {
	type withSkipped struct {
		Kept    string `json:"kept"`
		Omitted string `json:"-"`
	}

	var out withSkipped
	schema, err := schemaFor(&out)
	require.NoError(t, err)

	assert.Len(t, schema.Properties, 1)
	assert.Contains(t, schema.Properties, "kept")
}

func TestSchemaFor_RejectsNonPointer(t *testing.T) {
	_, err := schemaFor("not a pointer")
	assert.Error(t, err)
}

func TestSchemaFor_RejectsNil(t *testing.T) {
	_, err := schemaFor(nil)
	assert.Error(t, err)
}

func TestSchemaFor_RejectsUnsupported(t *testing.T) {
	var out map[string]string
	_, err := schemaFor(&out)
	assert.Error(t, err)
}
