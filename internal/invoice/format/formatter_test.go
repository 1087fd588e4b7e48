package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumber(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)

	got, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, issued, 12)
	require.NoError(t, err)
	assert.Equal(t, "FAC-000012", got)

	got, err = FormatInvoiceNumber("{YYYY}{MM}{DD}-{SEQ}", issued, 7)
	require.NoError(t, err)
	assert.Equal(t, "20260301-7", got)

	got, err = FormatInvoiceNumber("F{YY}-{SEQ3}", issued, 12345)
	require.NoError(t, err)
	assert.Equal(t, "F26-12345", got)
}

func TestFormatInvoiceNumberErrors(t *testing.T) {
	issued := time.Now()

	_, err := FormatInvoiceNumber("", issued, 1)
	assert.Error(t, err)
	_, err = FormatInvoiceNumber("FAC-{SEQ6}", issued, 0)
	assert.Error(t, err)
	_, err = FormatInvoiceNumber("FAC-{NOPE}", issued, 1)
	assert.Error(t, err)
}
