package metaschema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/tools/txtar"
)

const testDataDir = "./testdata"

func TestValidateAgainstFixtures(t *testing.T) {
	t.Parallel()

	files, err := os.ReadDir(testDataDir)
	assert.NoError(t, err)

	for _, file := range files {
		file := file
		t.Run(file.Name(), func(t *testing.T) {
			t.Parallel()

			ac, err := txtar.ParseFile(filepath.Join(testDataDir, file.Name()))
			assert.NoError(t, err)
			assert.Len(t, ac.Files, 2)

			var v map[string]any
			assert.NoError(t, json.Unmarshal(ac.Files[0].Data, &v))

			shouldValidate, err := strconv.ParseBool(strings.TrimSpace(string(ac.Files[1].Data)))
			assert.NoError(t, err)

			err = Validate(v)
			if shouldValidate && err != nil {
				t.Errorf("expected %s to validate, got %v", ac.Files[0].Name, err)
			} else if !shouldValidate && err == nil {
				t.Errorf("expected %s to be invalid", ac.Files[0].Name)
			}
		})
	}
}

func TestValidateYAMLRejectsNonObjectTopLevel(t *testing.T) {
	t.Parallel()

	err := ValidateYAML([]byte("- just\n- a\n- list\n"))
	assert.Error(t, err)
}

func TestValidateYAMLAcceptsMinimalDocument(t *testing.T) {
	t.Parallel()

	doc := `
database:
  - schemaName: public
    tables:
      - table:
          tableName: widgets
          columns:
            - column:
                name: id
                type: serial
`
	assert.NoError(t, ValidateYAML([]byte(doc)))
}
