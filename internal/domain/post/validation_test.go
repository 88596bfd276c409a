package post

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput(id string) CreatePostInput {
	return CreatePostInput{
		UploadID:    id,
		GameID:      1,
		ImageWidth:  1920,
		ImageHeight: 1080,
		Tags:        []string{"zelda", "botw", "screenshot"},
	}
}

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, "super-mario", NormalizeTag("Super Mario!"))
	assert.Equal(t, "hello-world", NormalizeTag("  Hello,   World "))
}

func TestPrepareBatchDefaultsTitleFromTags(t *testing.T) {
	in := validInput("abc12345")
	in.Tags = []string{"Super Mario!", "Retro", "Nintendo"}

	out, err := PrepareBatch([]CreatePostInput{in})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"super-mario", "retro", "nintendo"}, out[0].Tags)
	assert.Equal(t, "super-mario retro nintendo", out[0].Title)
}

func TestPrepareBatchKeepsExplicitTitle(t *testing.T) {
	in := validInput("abc12345")
	in.Title = "  Sunset  "

	out, err := PrepareBatch([]CreatePostInput{in})
	require.NoError(t, err)
	assert.Equal(t, "Sunset", out[0].Title)
}

func TestPrepareBatchRejectsInvalidBatches(t *testing.T) {
	tooMany := make([]CreatePostInput, MaxBatchSize+1)
	for i := range tooMany {
		tooMany[i] = validInput(fmt.Sprintf("id%06d", i))
	}

	tests := []struct {
		name   string
		inputs []CreatePostInput
	}{
		{name: "empty batch", inputs: nil},
		{name: "too many posts", inputs: tooMany},
		{name: "duplicate upload ids", inputs: []CreatePostInput{validInput("same0001"), validInput("same0001")}},
		{name: "missing upload id", inputs: []CreatePostInput{func() CreatePostInput { in := validInput(""); return in }()}},
		{name: "title too long", inputs: []CreatePostInput{func() CreatePostInput {
			in := validInput("a")
			in.Title = strings.Repeat("t", 51)
			return in
		}()}},
		{name: "caption too long", inputs: []CreatePostInput{func() CreatePostInput {
			in := validInput("a")
			in.Caption = strings.Repeat("c", 201)
			return in
		}()}},
		{name: "game id zero", inputs: []CreatePostInput{func() CreatePostInput {
			in := validInput("a")
			in.GameID = 0
			return in
		}()}},
		{name: "image too narrow", inputs: []CreatePostInput{func() CreatePostInput {
			in := validInput("a")
			in.ImageWidth = 719
			return in
		}()}},
		{name: "image too short", inputs: []CreatePostInput{func() CreatePostInput {
			in := validInput("a")
			in.ImageHeight = 500
			return in
		}()}},
		{name: "too few tags", inputs: []CreatePostInput{func() CreatePostInput {
			in := validInput("a")
			in.Tags = []string{"one", "two"}
			return in
		}()}},
		{name: "tag too short after normalization", inputs: []CreatePostInput{func() CreatePostInput {
			in := validInput("a")
			in.Tags = []string{"a!", "two", "three"}
			return in
		}()}},
		{name: "tag too long", inputs: []CreatePostInput{func() CreatePostInput {
			in := validInput("a")
			in.Tags = []string{"abcdefghijklmnop", "two", "three"}
			return in
		}()}},
		{name: "joined tags too long", inputs: []CreatePostInput{func() CreatePostInput {
			in := validInput("a")
			in.Tags = []string{"abcdefghijklmno", "abcdefghijklmno", "abcdefghijklmno", "abcdef"}
			return in
		}()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PrepareBatch(tt.inputs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}

func TestPrepareBatchAcceptsBoundaryValues(t *testing.T) {
	in := validInput("edge0001")
	in.Title = strings.Repeat("t", 50)
	in.Caption = strings.Repeat("c", 200)
	in.ImageWidth = MinImageDimension
	in.ImageHeight = MinImageDimension
	in.Tags = []string{"abcdefghijklmno", "abcdefghijklmno", "abcdefghijklmno", "abcde"}

	_, err := PrepareBatch([]CreatePostInput{in})
	require.NoError(t, err)
}

func TestDefaultTitle(t *testing.T) {
	assert.Equal(t, "retro arcade", DefaultTitle([]string{"retro", "arcade"}))
	assert.Empty(t, DefaultTitle(nil))
}
