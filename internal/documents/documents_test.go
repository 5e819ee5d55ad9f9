package documents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	dErrors "wasmember/pkg/domain-errors"
	"wasmember/pkg/platform/sentinel"
)

func validUpload() Upload {
	return Upload{
		Name:        "registration.pdf",
		Size:        1024,
		ContentType: "application/pdf",
		Body:        strings.NewReader("%PDF-1.7"),
	}
}

func TestValidateUpload(t *testing.T) {
	require.NoError(t, ValidateUpload(validUpload()))

	for name, mutate := range map[string]func(*Upload){
		"missing name":    func(u *Upload) { u.Name = "" },
		"empty file":      func(u *Upload) { u.Size = 0 },
		"oversized":       func(u *Upload) { u.Size = MaxSize + 1 },
		"wrong type":      func(u *Upload) { u.ContentType = "application/zip" },
		"no content type": func(u *Upload) { u.ContentType = "" },
	} {
		up := validUpload()
		mutate(&up)
		err := ValidateUpload(up)
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "%s: %v", name, err)
	}
}

func TestValidateUploadAcceptsAllAllowedTypes(t *testing.T) {
	for _, ct := range []string{"application/pdf", "image/jpeg", "image/jpg", "image/png", " IMAGE/PNG "} {
		up := validUpload()
		up.ContentType = ct
		require.NoError(t, ValidateUpload(up), "content type %q", ct)
	}
}

func TestValidateUploadAtLimit(t *testing.T) {
	up := validUpload()
	up.Size = MaxSize
	require.NoError(t, ValidateUpload(up))
}

func TestPut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/documents", r.URL.Path)
		require.Equal(t, "registration.pdf", r.URL.Query().Get("name"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"url":"blob://abc","name":"registration.pdf","size":1024,"content_type":"application/pdf"}`))
	}))
	defer srv.Close()

	ref, err := NewClient(srv.URL).Put(context.Background(), validUpload())
	require.NoError(t, err)
	require.Equal(t, "blob://abc", ref.URL)
	require.EqualValues(t, 1024, ref.Size)
}

func TestPutRejectsBeforeSending(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	up := validUpload()
	up.ContentType = "application/zip"
	_, err := NewClient(srv.URL).Put(context.Background(), up)
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	require.False(t, called, "invalid uploads must not reach the store")
}

func TestPutServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Put(context.Background(), validUpload())
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
}
