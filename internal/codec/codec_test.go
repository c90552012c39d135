package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSplitsRowsAndCells(t *testing.T) {
	lines, err := Decode("name:string\tprice:float\nsword\t10\n# a comment\n\nshield\t5\n")
	require.NoError(t, err)
	require.Len(t, lines, 5)
	assert.False(t, lines[0].IsComment)
	assert.Equal(t, []string{"name:string", "price:float"}, lines[0].Cells)
	assert.True(t, lines[2].IsComment)
	assert.Equal(t, "# a comment", lines[2].Text)
	assert.True(t, lines[3].IsComment)
	assert.Equal(t, "", lines[3].Text)
}

func TestDecodeNormalizesLineEndings(t *testing.T) {
	lines, err := Decode("a\tb\r\nc\td\r")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"a", "b"}, lines[0].Cells)
	assert.Equal(t, []string{"c", "d"}, lines[1].Cells)
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	_, err := Decode(string([]byte{0xff, 0xfe}))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	text := "name:string\tprice:float\nsword\t10\n# comment\n\nshield\t5\n"
	lines, err := Decode(text)
	require.NoError(t, err)
	out, err := Encode(lines)
	require.NoError(t, err)
	assert.Equal(t, text, out)
}

func TestEncodeRejectsForbiddenCharacters(t *testing.T) {
	_, err := Encode([]Line{CellsLine([]string{"a\tb"})})
	assert.Error(t, err)
}

func TestTransposeRoundTrip(t *testing.T) {
	text := "path:string\tpackage_id:string\nweapons\tweapons-pack\n"
	lines, err := Decode(text)
	require.NoError(t, err)

	logical := Transpose(lines)
	require.Len(t, logical, 2)
	assert.Equal(t, []string{"path:string", "weapons"}, logical[0].Cells)
	assert.Equal(t, []string{"package_id:string", "weapons-pack"}, logical[1].Cells)

	physical := Transpose(logical)
	require.Len(t, physical, 2)
	assert.Equal(t, []string{"path:string", "package_id:string"}, physical[0].Cells)
	assert.Equal(t, []string{"weapons", "weapons-pack"}, physical[1].Cells)
}

func TestTransposeSynthesizesCommentLines(t *testing.T) {
	lines := []Line{
		CellsLine([]string{"path:string", "weapons"}),
		CommentLine("# a note about the package"),
	}
	logical := Transpose(lines)
	require.Len(t, logical, 2)
	assert.Equal(t, "path:string", logical[0].Cells[0])
	assert.True(t, IsDummyCommentColumn("dummy1", "comment"))
	assert.Equal(t, "dummy1:comment", logical[0].Cells[1])
	assert.Equal(t, "# a note about the package", logical[1].Cells[1])
}
