package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckExtension(t *testing.T) {
	ext, err := CheckExtension("Photo.JPG", ImageExtensions)
	require.NoError(t, err)
	assert.Equal(t, ".jpg", ext)

	_, err = CheckExtension("bank.xlsx", ImageExtensions)
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	_, err = CheckExtension("Bank.XLSX", SpreadsheetExtensions)
	assert.NoError(t, err)

	_, err = CheckExtension("bank.xls", SpreadsheetExtensions)
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	_, err = CheckExtension("noext", SpreadsheetExtensions)
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestSaveAndRemoveImage(t *testing.T) {
	assets, err := NewLocalAssets(filepath.Join(t.TempDir(), "uploads"), "uploads/")
	require.NoError(t, err)

	name, err := assets.SaveImage("diagram.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))

	data, err := os.ReadFile(filepath.Join(assets.Dir, name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	url := assets.URL(&name)
	require.NotNil(t, url)
	assert.Equal(t, "/uploads/"+name, *url)

	require.NoError(t, assets.Remove(name))
	_, err = os.Stat(filepath.Join(assets.Dir, name))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, assets.Remove(name), "removing a missing file is not an error")
}

func TestSaveImageRejectsOtherTypes(t *testing.T) {
	assets, err := NewLocalAssets(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = assets.SaveImage("script.sh", strings.NewReader("#!/bin/sh"))
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	entries, err := os.ReadDir(assets.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestURLNil(t *testing.T) {
	assets := &LocalAssets{URLPrefix: "/uploads"}
	assert.Nil(t, assets.URL(nil))
	empty := ""
	assert.Nil(t, assets.URL(&empty))
}
