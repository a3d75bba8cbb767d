package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/propval/internal/valerr"
)

func parseValuateFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("valuate", pflag.ContinueOnError)
	addValuateFlags(f)
	require.NoError(t, f.Parse(args))
	return f
}

func TestRequestFromFlags_Apartment(t *testing.T) {
	f := parseValuateFlags(t, "--city", "Bangalore", "--area", "Indiranagar",
		"--sqft", "1200", "--bedrooms", "3", "--age", "4", "--furnishing", "semi")

	req, err := requestFromFlags(f, "apartment")
	require.NoError(t, err)
	assert.Equal(t, "apartment", req.PropertyType)
	assert.Equal(t, "Bangalore", req.City)
	assert.Equal(t, "Indiranagar", req.AreaName)
	assert.Equal(t, 1200.0, req.SqFt)
	assert.Equal(t, 3, req.Bedrooms)
	assert.Equal(t, 4, req.AgeYears)
	assert.Equal(t, "semi", req.Furnishing)
	assert.Nil(t, req.DistanceKM)
	assert.Nil(t, req.Latitude)
	assert.Nil(t, req.Longitude)
}

func TestRequestFromFlags_OptionalNumbersOnlyWhenSet(t *testing.T) {
	f := parseValuateFlags(t, "--pin", "560034", "--acres", "2", "--distance", "0",
		"--lat", "12.93", "--lon", "77.62", "--amenities", "pool,gym")

	req, err := requestFromFlags(f, "villa")
	require.NoError(t, err)
	require.NotNil(t, req.DistanceKM)
	assert.Zero(t, *req.DistanceKM)
	require.NotNil(t, req.Latitude)
	require.NotNil(t, req.Longitude)
	assert.InDelta(t, 12.93, *req.Latitude, 1e-9)
	assert.InDelta(t, 77.62, *req.Longitude, 1e-9)
	assert.Equal(t, []string{"pool", "gym"}, req.Amenities)
}

func TestRequestFromFlags_Errors(t *testing.T) {
	_, err := requestFromFlags(parseValuateFlags(t, "--city", "mysore"), "castle")
	assert.ErrorContains(t, err, "unknown property type")

	_, err = requestFromFlags(parseValuateFlags(t, "--sqft", "900"), "plot")
	assert.ErrorContains(t, err, "--city or --pin")
}

func TestWriteValuationError(t *testing.T) {
	var buf bytes.Buffer
	writeValuationError(&buf, valerr.New(valerr.UnknownLocation, "PIN code %s not found", "999999"))

	var got valuationError
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "PIN code 999999 not found", got.Error)
	assert.Equal(t, "UnknownLocation", got.Kind)

	buf.Reset()
	writeValuationError(&buf, errors.New("disk on fire"))
	got = valuationError{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "disk on fire", got.Error)
	assert.Empty(t, got.Kind)
}
