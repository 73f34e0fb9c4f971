package wordpress

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/janisrealty/janis/core"
)

const (
	propertiesPath = "/wp-json/wp/v2/properties"
	mediaPath      = "/wp-json/wp/v2/media"
)

// Object is a decoded WordPress REST resource.
type Object map[string]interface{}

// Int returns the numeric field key, or 0.
func (o Object) Int(key string) int64 {
	switch v := o[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

func (o Object) String(key string) string {
	s, _ := o[key].(string)
	return s
}

// Client talks to the WordPress REST API with an application password.
type Client struct {
	baseURL string
	auth    string
	http    *rest.Client
}

func NewClient(conf *core.Config) *Client {
	return NewClientWithHTTP(conf.WordPress.BaseURL, conf.WordPress.User, conf.WordPress.AppPassword,
		&http.Client{Timeout: 30 * time.Second})
}

func NewClientWithHTTP(baseURL, user, appPassword string, hc *http.Client) *Client {
	token := base64.StdEncoding.EncodeToString([]byte(user + ":" + appPassword))
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    "Basic " + token,
		http:    &rest.Client{HTTPClient: hc},
	}
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Client) send(ctx context.Context, req rest.Request, out interface{}) error {
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	req.Headers["Authorization"] = c.auth
	req.Headers["Accept"] = "application/json"

	resp, err := c.http.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "WP %s %s", req.Method, req.BaseURL)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("WP %d %s %s -> %s", resp.StatusCode, req.Method, req.BaseURL, resp.Body)
	}
	if out == nil || resp.Body == "" {
		return nil
	}
	return errors.Wrapf(json.Unmarshal([]byte(resp.Body), out), "decoding WP %s %s", req.Method, req.BaseURL)
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out interface{}) error {
	return c.send(ctx, rest.Request{Method: rest.Get, BaseURL: c.url(path), QueryParams: query}, out)
}

func (c *Client) sendJSON(ctx context.Context, method rest.Method, path string, body, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encoding WP payload")
	}
	return c.send(ctx, rest.Request{
		Method:  method,
		BaseURL: c.url(path),
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    b,
	}, out)
}

func (c *Client) delete(ctx context.Context, path string, force bool, out interface{}) error {
	return c.send(ctx, rest.Request{
		Method:      rest.Delete,
		BaseURL:     c.url(path),
		QueryParams: map[string]string{"force": strconv.FormatBool(force)},
	}, out)
}

func (c *Client) Me(ctx context.Context) (Object, error) {
	var obj Object
	return obj, c.get(ctx, "/wp-json/wp/v2/users/me", nil, &obj)
}

func (c *Client) GetProperty(ctx context.Context, id int64) (Object, error) {
	var obj Object
	return obj, c.get(ctx, propertiesPath+"/"+strconv.FormatInt(id, 10), nil, &obj)
}

func (c *Client) CreateProperty(ctx context.Context, p Payload) (Object, error) {
	var obj Object
	return obj, c.sendJSON(ctx, rest.Post, propertiesPath, p, &obj)
}

func (c *Client) UpdateProperty(ctx context.Context, id int64, p Payload) (Object, error) {
	var obj Object
	return obj, c.sendJSON(ctx, rest.Put, propertiesPath+"/"+strconv.FormatInt(id, 10), p, &obj)
}

func (c *Client) DeleteProperty(ctx context.Context, id int64, force bool) (Object, error) {
	var obj Object
	return obj, c.delete(ctx, propertiesPath+"/"+strconv.FormatInt(id, 10), force, &obj)
}

// FindPropertyBySlug returns the posts (of any status) with the given slug.
func (c *Client) FindPropertyBySlug(ctx context.Context, slug string) ([]Object, error) {
	var objs []Object
	return objs, c.get(ctx, propertiesPath, map[string]string{"slug": slug, "status": "any"}, &objs)
}

func (c *Client) ListTerms(ctx context.Context, taxonomy, search string) ([]Object, error) {
	var objs []Object
	return objs, c.get(ctx, "/wp-json/wp/v2/"+taxonomy, map[string]string{"search": search, "per_page": "100"}, &objs)
}

func (c *Client) CreateTerm(ctx context.Context, taxonomy, name, slug string) (Object, error) {
	body := map[string]string{"name": name}
	if slug != "" {
		body["slug"] = slug
	}
	var obj Object
	return obj, c.sendJSON(ctx, rest.Post, "/wp-json/wp/v2/"+taxonomy, body, &obj)
}

func (c *Client) UploadMedia(ctx context.Context, filename string, content []byte, contentType string) (Object, error) {
	var obj Object
	return obj, c.send(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: c.url(mediaPath),
		Headers: map[string]string{
			"Content-Disposition": fmt.Sprintf("attachment; filename=%q", filename),
			"Content-Type":        contentType,
		},
		Body: content,
	}, &obj)
}

func (c *Client) GetMedia(ctx context.Context, id int64) (Object, error) {
	var obj Object
	return obj, c.get(ctx, mediaPath+"/"+strconv.FormatInt(id, 10), nil, &obj)
}

func (c *Client) DeleteMedia(ctx context.Context, id int64, force bool) (Object, error) {
	var obj Object
	return obj, c.delete(ctx, mediaPath+"/"+strconv.FormatInt(id, 10), force, &obj)
}

// ImportMediaFromURL makes WordPress fetch url into its media library.
func (c *Client) ImportMediaFromURL(ctx context.Context, url string) (Object, error) {
	var obj Object
	return obj, c.sendJSON(ctx, rest.Post, "/wp-json/propify/v1/media-from-url", map[string]string{"url": url}, &obj)
}
