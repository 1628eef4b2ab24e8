package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func loginCookie(t *testing.T, srv *Server, username, password string) *http.Cookie {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func multipartBody(t *testing.T, filename, alias string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if alias != "" {
		if err := mw.WriteField("alias", alias); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func uploadFile(t *testing.T, srv *Server, cookie *http.Cookie, filename, alias string, content []byte) FileRecord {
	t.Helper()

	body, contentType := multipartBody(t, filename, alias, content)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var rec FileRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return rec
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t, "letmein")

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestUploadRequiresSession(t *testing.T) {
	srv := newTestServer(t, "letmein")

	body, contentType := multipartBody(t, "a.txt", "", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rr.Code)
	}
}

func TestUploadListDownloadDelete(t *testing.T) {
	srv := newTestServer(t, "letmein")
	cookie := loginCookie(t, srv, "admin", "letmein")

	content := []byte("end to end bytes")
	rec := uploadFile(t, srv, cookie, "e2e.txt", "demo file", content)
	if rec.Filename != "e2e.txt" || rec.Alias != "demo file" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.FileHash) != 64 {
		t.Fatalf("expected sha256 hex in record, got %q", rec.FileHash)
	}

	// Listing is public and contains the new record.
	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	var files []FileRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &files); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(files) != 1 || files[0].ID != rec.ID {
		t.Fatalf("unexpected listing: %+v", files)
	}

	// Download is public and returns the original bytes as attachment.
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/d/%d", rec.ID), nil)
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", rr.Code)
	}
	got, _ := io.ReadAll(rr.Body)
	if !bytes.Equal(got, content) {
		t.Fatalf("downloaded bytes differ: %q", got)
	}
	disposition, params, err := mime.ParseMediaType(rr.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatalf("parse disposition: %v", err)
	}
	if disposition != "attachment" || params["filename"] != "e2e.txt" {
		t.Fatalf("unexpected disposition: %s %v", disposition, params)
	}

	// Delete needs the session.
	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/files/%d", rec.ID), nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	// Gone afterwards.
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/d/%d", rec.ID), nil)
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestUploadDuplicateConflict(t *testing.T) {
	srv := newTestServer(t, "letmein")
	cookie := loginCookie(t, srv, "admin", "letmein")

	uploadFile(t, srv, cookie, "dup.txt", "", []byte("one"))

	body, contentType := multipartBody(t, "dup.txt", "", []byte("two"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestUploadTooLargeOverHTTP(t *testing.T) {
	srv := newTestServer(t, "letmein")
	cookie := loginCookie(t, srv, "admin", "letmein")

	// Server is configured with a 1 MiB ceiling.
	body, contentType := multipartBody(t, "huge.bin", "", make([]byte, (1<<20)+1))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestDeleteMissingFileReturns404(t *testing.T) {
	srv := newTestServer(t, "letmein")
	cookie := loginCookie(t, srv, "admin", "letmein")

	req := httptest.NewRequest(http.MethodDelete, "/api/files/12345", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	srv := newTestServer(t, "letmein")
	cookie := loginCookie(t, srv, "admin", "letmein")

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rr.Code)
	}

	// The old cookie no longer opens the gate.
	body, contentType := multipartBody(t, "later.txt", "", []byte("x"))
	req = httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rr.Code)
	}
}

func TestChangePasswordOverHTTP(t *testing.T) {
	srv := newTestServer(t, "oldpass")
	cookie := loginCookie(t, srv, "admin", "oldpass")

	payload, _ := json.Marshal(map[string]string{
		"current_password": "oldpass",
		"new_password":     "newpass",
		"confirm_password": "newpass",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/password", bytes.NewReader(payload))
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("change password: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	// Old password is dead, new one works.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "oldpass"})
	req = httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("old password still accepted: %d", rr.Code)
	}
	loginCookie(t, srv, "admin", "newpass")
}

func TestChangePasswordTooShortOverHTTP(t *testing.T) {
	srv := newTestServer(t, "oldpass")
	cookie := loginCookie(t, srv, "admin", "oldpass")

	payload, _ := json.Marshal(map[string]string{
		"current_password": "oldpass",
		"new_password":     "five5",
		"confirm_password": "five5",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/password", bytes.NewReader(payload))
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", rr.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, "letmein")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if resp.Status != "healthy" {
		t.Fatalf("unexpected status %q", resp.Status)
	}
}
