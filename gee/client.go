package gee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gee-tools/table"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
)

const (
	// DefaultEndpoint is the Earth Engine REST API root.
	DefaultEndpoint = "https://earthengine.googleapis.com/"
	// HighVolumeEndpoint serves many small automated requests.
	HighVolumeEndpoint = "https://earthengine-highvolume.googleapis.com/"

	apiVersion    = "v1"
	dateLayout    = "2006-01-02"
	timeStartProp = "system:time_start"
)

type Client struct {
	project    string
	endpoint   string
	httpClient *http.Client
}

type Option func(*Client)

// WithEndpoint sends requests to endpoint instead of DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

type PixelRequest struct {
	Product  string
	Bands    []string
	Lat, Lon float64
	Start    time.Time
	End      time.Time
	// Scale is the sampling resolution in metres.
	Scale float64
	// Pad, in kilometres, turns the point into a square window around it.
	Pad float64
}

type SceneRequest struct {
	Collection string
	Lat, Lon   float64
	Start      time.Time
	End        time.Time
}

func NewClient(s *Session, opts ...Option) *Client {
	c := &Client{
		project:    "projects/" + s.Project,
		endpoint:   DefaultEndpoint,
		httpClient: s.HTTPClient(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchPixels returns one row per image of req.Product covering the point in
// the date range, with columns id, longitude, latitude, date, the requested
// bands and product.
func (c *Client) FetchPixels(ctx context.Context, req PixelRequest) (*table.Table, error) {
	geom := point(req.Lon, req.Lat)
	if req.Pad > 0 {
		geom = call("Geometry.bounds", args{
			"geometry": call("Geometry.buffer", args{
				"geometry": geom,
				"distance": constant(req.Pad * 1000),
			}),
		})
	}
	region := call("ImageCollection.getRegion", args{
		"collection": filtered(req.Product, geom, req.Start, req.End),
		"geometry":   geom,
		"scale":      constant(req.Scale),
	})

	logrus.Debugf("Requesting %s pixels at (%v, %v)", req.Product, req.Lat, req.Lon)
	result, err := c.compute(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("FetchPixels(%s): %w", req.Product, err)
	}
	t, err := regionTable(result, req.Bands, req.Product)
	if err != nil {
		return nil, fmt.Errorf("FetchPixels(%s): %w", req.Product, err)
	}
	return t, nil
}

// FirstScene returns the properties of the earliest image in req.Collection
// that intersects the point, or nil if there is none.
func (c *Client) FirstScene(ctx context.Context, req SceneRequest) (map[string]any, error) {
	first := call("Collection.toList", args{
		"collection": call("Collection.limit", args{
			"collection": filtered(req.Collection, point(req.Lon, req.Lat), req.Start, req.End),
			"limit":      constant(1),
			"key":        constant(timeStartProp),
			"ascending":  constant(true),
		}),
		"count": constant(1),
	})

	result, err := c.compute(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("FirstScene(%s): %w", req.Collection, err)
	}
	images, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("FirstScene(%s): unexpected result type %T", req.Collection, result)
	}
	if len(images) == 0 {
		return nil, nil
	}
	image, ok := images[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("FirstScene(%s): unexpected image type %T", req.Collection, images[0])
	}
	props, _ := image["properties"].(map[string]any)
	if props == nil {
		props = map[string]any{}
	}
	return props, nil
}

// valueNode is one node of an Earth Engine expression graph. Exactly one
// field is set.
type valueNode struct {
	ConstantValue           any                 `json:"constantValue,omitempty"`
	FunctionInvocationValue *functionInvocation `json:"functionInvocationValue,omitempty"`
}

type functionInvocation struct {
	FunctionName string `json:"functionName"`
	Arguments    args   `json:"arguments"`
}

type expression struct {
	Result string               `json:"result"`
	Values map[string]valueNode `json:"values"`
}

type computeRequest struct {
	Expression expression `json:"expression"`
}

type computeResponse struct {
	Result any `json:"result"`
}

// compute evaluates the graph rooted at root with projects.value.compute.
// Non-2xx replies come back as *googleapi.Error.
func (c *Client) compute(ctx context.Context, root valueNode) (any, error) {
	body, err := json.Marshal(computeRequest{
		Expression: expression{Result: "0", Values: map[string]valueNode{"0": root}},
	})
	if err != nil {
		return nil, err
	}
	url := strings.TrimSuffix(c.endpoint, "/") + "/" + apiVersion + "/" + c.project + "/value:compute"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer googleapi.CloseBody(res)
	if err := googleapi.CheckResponse(res); err != nil {
		return nil, err
	}
	var out computeResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode compute response: %w", err)
	}
	return out.Result, nil
}

// regionTable converts a getRegion result, a header row followed by value
// rows, into a table.
func regionTable(result any, bands []string, product string) (*table.Table, error) {
	rows, ok := result.([]any)
	if !ok || len(rows) == 0 {
		return nil, fmt.Errorf("unexpected getRegion result %T", result)
	}
	header, ok := rows[0].([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected getRegion header %T", rows[0])
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		name, _ := h.(string)
		pos[name] = i
	}
	for _, col := range append([]string{"id", "longitude", "latitude", "time"}, bands...) {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("%w: %s not in getRegion result", table.ErrMissingColumn, col)
		}
	}

	columns := append([]string{"id", "longitude", "latitude", "date"}, bands...)
	columns = append(columns, "product")
	out := make([][]any, 0, len(rows)-1)
	for i, r := range rows[1:] {
		values, ok := r.([]any)
		if !ok || len(values) != len(header) {
			return nil, fmt.Errorf("getRegion row %d is malformed", i)
		}
		ms, ok := table.Float(values[pos["time"]])
		if !ok {
			return nil, fmt.Errorf("getRegion row %d has no acquisition time", i)
		}
		row := []any{
			values[pos["id"]],
			values[pos["longitude"]],
			values[pos["latitude"]],
			time.UnixMilli(int64(ms)).UTC().Format(dateLayout),
		}
		for _, band := range bands {
			row = append(row, values[pos[band]])
		}
		out = append(out, append(row, product))
	}
	return table.New(columns, out)
}

type args map[string]valueNode

func call(name string, arguments args) valueNode {
	return valueNode{
		FunctionInvocationValue: &functionInvocation{
			FunctionName: name,
			Arguments:    arguments,
		},
	}
}

func constant(v any) valueNode {
	return valueNode{ConstantValue: v}
}

func point(lon, lat float64) valueNode {
	return call("GeometryConstructors.Point", args{
		"coordinates": constant([]float64{lon, lat}),
	})
}

// filtered loads a collection restricted to [start, end) and to images
// intersecting geom.
func filtered(collection string, geom valueNode, start, end time.Time) valueNode {
	byDate := call("Collection.filter", args{
		"collection": call("ImageCollection.load", args{"id": constant(collection)}),
		"filter": call("Filter.dateRangeContains", args{
			"leftValue": call("DateRange", args{
				"start": constant(start.Format(dateLayout)),
				"end":   constant(end.Format(dateLayout)),
			}),
			"rightField": constant(timeStartProp),
		}),
	})
	return call("Collection.filter", args{
		"collection": byDate,
		"filter": call("Filter.intersects", args{
			"leftField":  constant(".all"),
			"rightValue": geom,
		}),
	})
}
