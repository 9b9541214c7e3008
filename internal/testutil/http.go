package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// HTTPResult captures HTTP response details for test assertions
type HTTPResult struct {
	Code    int
	Error   error
	Headers http.Header
	Body    []byte
	Cookies []*http.Cookie
}

// Cookie returns the response cookie with name, or nil
func (r HTTPResult) Cookie(name string) *http.Cookie {
	for _, c := range r.Cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Header represents an HTTP header key-value pair
type Header struct {
	Key   string
	Value string
}

// ContentTypeForm returns a header for form-urlencoded content type
func ContentTypeForm() Header {
	return Header{
		Key:   "Content-Type",
		Value: "application/x-www-form-urlencoded",
	}
}

// Cookie returns a header sending one cookie. Several can be passed to a
// single request.
func Cookie(name, value string) Header {
	return Header{
		Key:   "Cookie",
		Value: (&http.Cookie{Name: name, Value: value}).String(),
	}
}

// ExpectStatus validates the HTTP status code and fails the test if it doesn't match
func ExpectStatus(
	t *testing.T,
	expected int,
	result HTTPResult,
) {
	t.Helper()
	if result.Error != nil {
		t.Fatalf("request error: %v", result.Error)
	}
	if result.Code != expected {
		t.Fatalf("expected status %d, got %d. Body: %s", expected, result.Code, string(result.Body))
	}
}

// ExpectRedirect validates a redirect response and returns the Location header
func ExpectRedirect(
	t *testing.T,
	result HTTPResult,
) string {
	t.Helper()
	if result.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect (303), got %d. Body: %s", result.Code, string(result.Body))
	}
	location := result.Headers.Get("Location")
	if location == "" {
		t.Fatal("expected Location header in redirect")
	}
	return location
}

// ExpectBodyContains fails the test unless every fragment appears in the body
func ExpectBodyContains(
	t *testing.T,
	result HTTPResult,
	fragments ...string,
) {
	t.Helper()
	body := string(result.Body)
	for _, fragment := range fragments {
		if !strings.Contains(body, fragment) {
			t.Errorf("expected body to contain %q. Body: %s", fragment, body)
		}
	}
}

// Get performs a GET request and optionally decodes JSON response
func Get(
	router http.Handler,
	url string,
	response any,
	headers ...Header,
) HTTPResult {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	return serve(router, req, response, headers)
}

// Post performs a POST request and optionally decodes JSON response
func Post(
	router http.Handler,
	url string,
	body string,
	response any,
	headers ...Header,
) HTTPResult {
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	return serve(router, req, response, headers)
}

// PostForm performs a POST with form-urlencoded body
func PostForm(
	router http.Handler,
	urlPath string,
	values url.Values,
	headers ...Header,
) HTTPResult {
	headers = append(headers, ContentTypeForm())
	return Post(router, urlPath, values.Encode(), nil, headers...)
}

// PostMultipart performs a POST with a multipart body holding fields and
// one file under fileField
func PostMultipart(
	router http.Handler,
	urlPath string,
	fields map[string]string,
	fileField string,
	filename string,
	data []byte,
	headers ...Header,
) HTTPResult {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			return HTTPResult{Error: err}
		}
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			return HTTPResult{Error: err}
		}
		if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
			return HTTPResult{Error: err}
		}
	}
	if err := mw.Close(); err != nil {
		return HTTPResult{Error: err}
	}

	headers = append(headers, Header{Key: "Content-Type", Value: mw.FormDataContentType()})
	return Post(router, urlPath, body.String(), nil, headers...)
}

func serve(
	router http.Handler,
	req *http.Request,
	response any,
	headers []Header,
) HTTPResult {
	res := httptest.NewRecorder()
	for _, h := range headers {
		req.Header.Add(h.Key, h.Value)
	}
	router.ServeHTTP(res, req)

	result := HTTPResult{
		Code:    res.Code,
		Headers: res.Header(),
		Body:    res.Body.Bytes(),
		Cookies: res.Result().Cookies(),
	}
	if response != nil && res.Body.Len() > 0 {
		if err := json.Unmarshal(res.Body.Bytes(), response); err != nil {
			result.Error = fmt.Errorf("failed to decode JSON: %v\n%s", err, res.Body.String())
		}
	}
	return result
}
