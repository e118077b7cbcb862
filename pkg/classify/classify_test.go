package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pgdeclare/pkg/classify"
)

func TestClassifySameBaseNoChange(t *testing.T) {
	assert.Equal(t, classify.NoChange, classify.Classify("int4", "integer"))
	assert.Equal(t, classify.NoChange, classify.Classify("varchar(32)", "varchar(32)"))
	assert.Equal(t, classify.NoChange, classify.Classify("text", "text"))
}

func TestClassifySizeExtensionAndReduction(t *testing.T) {
	assert.Equal(t, classify.SizeExtension, classify.Classify("varchar(32)", "varchar(64)"))
	assert.Equal(t, classify.SizeReduction, classify.Classify("varchar(64)", "varchar(32)"))
	assert.Equal(t, classify.SizeExtension, classify.Classify("varchar(32)", "varchar"))
}

func TestClassifyNumericScaleAndPrecision(t *testing.T) {
	assert.Equal(t, classify.SizeExtension, classify.Classify("numeric(10,2)", "numeric(12,2)"))
	assert.Equal(t, classify.SizeReduction, classify.Classify("numeric(10,4)", "numeric(10,2)"))
	assert.Equal(t, classify.NoChange, classify.Classify("numeric(10,2)", "numeric(10,2)"))
}

func TestClassifyCompatibleWidening(t *testing.T) {
	assert.Equal(t, classify.Compatible, classify.Classify("int2", "int4"))
	assert.Equal(t, classify.Compatible, classify.Classify("int4", "int8"))
	assert.Equal(t, classify.Compatible, classify.Classify("int4", "text"))
	assert.Equal(t, classify.Compatible, classify.Classify("int4", "varchar(11)"))
}

func TestClassifyCompatibleVarcharTooNarrow(t *testing.T) {
	assert.Equal(t, classify.Incompatible, classify.Classify("int4", "varchar(5)"))
}

func TestClassifyIncompatibleDifferentFamily(t *testing.T) {
	assert.Equal(t, classify.Incompatible, classify.Classify("int4", "bool"))
	assert.Equal(t, classify.Incompatible, classify.Classify("uuid", "int4"))
}

func TestClassifyVarcharTargetRequiresTabulatedBase(t *testing.T) {
	// jsonb has no minLen entry, so widening to any varchar(n) must stay
	// Incompatible rather than defaulting to a zero minimum width.
	assert.Equal(t, classify.Incompatible, classify.Classify("jsonb", "varchar(1)"))
	assert.Equal(t, classify.Incompatible, classify.Classify("json", "varchar(100)"))
	assert.Equal(t, classify.Incompatible, classify.Classify("text", "varchar(100)"))
}

func TestClassifyNeverCrashesOnMalformedType(t *testing.T) {
	assert.Equal(t, classify.Incompatible, classify.Classify("not a type(((", "int4"))
	assert.Equal(t, classify.Incompatible, classify.Classify("int4", ""))
	assert.Equal(t, classify.Incompatible, classify.Classify("", ""))
}
