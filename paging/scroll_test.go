package paging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mentorhub/apikit/net/resp"
)

// fakeCollection implements Finder over an in-memory document slice. It
// honors the filter shapes the engine produces (case-insensitive name match,
// _id range) plus the sort and limit options, and records the last query for
// inspection.
type fakeCollection struct {
	docs []bson.M

	lastFilter bson.M
	lastOpts   *options.FindOptions

	findErr error
}

func (f *fakeCollection) Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}

	match, _ := filter.(bson.M)
	f.lastFilter = match
	var opt *options.FindOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	f.lastOpts = opt

	var selected []bson.M
	for _, doc := range f.docs {
		if matches(doc, match) {
			selected = append(selected, doc)
		}
	}

	if opt != nil && opt.Sort != nil {
		applySort(selected, opt.Sort.(bson.D))
	}
	if opt != nil && opt.Limit != nil && int64(len(selected)) > *opt.Limit {
		selected = selected[:*opt.Limit]
	}

	out := make([]any, len(selected))
	for i, doc := range selected {
		out[i] = doc
	}
	return mongo.NewCursorFromDocuments(out, nil, nil)
}

func matches(doc, match bson.M) bool {
	for field, cond := range match {
		condDoc, ok := cond.(bson.M)
		if !ok {
			if doc[field] != cond {
				return false
			}
			continue
		}
		if pattern, ok := condDoc["$regex"].(string); ok {
			value, _ := doc[field].(string)
			if !strings.Contains(strings.ToLower(value), strings.ToLower(pattern)) {
				return false
			}
			continue
		}
		id, _ := doc[field].(primitive.ObjectID)
		if after, ok := condDoc["$gt"].(primitive.ObjectID); ok {
			if bytes.Compare(id[:], after[:]) <= 0 {
				return false
			}
		}
		if before, ok := condDoc["$lt"].(primitive.ObjectID); ok {
			if bytes.Compare(id[:], before[:]) >= 0 {
				return false
			}
		}
	}
	return true
}

func applySort(docs []bson.M, spec bson.D) {
	if len(spec) == 0 {
		return
	}
	field := spec[0].Key
	asc := spec[0].Value == 1
	sort.SliceStable(docs, func(i, j int) bool {
		a := fmt.Sprintf("%v", docs[i][field])
		b := fmt.Sprintf("%v", docs[j][field])
		if asc {
			return a < b
		}
		return a > b
	})
}

// oid builds a deterministic, ordered ObjectID from a sequence number.
func oid(n int) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(fmt.Sprintf("%024x", n+1))
	if err != nil {
		panic(err)
	}
	return id
}

// seedItems builds n documents whose name order matches their _id order, the
// case where cursor continuation is gapless.
func seedItems(n int) []bson.M {
	docs := make([]bson.M, n)
	for i := range docs {
		docs[i] = bson.M{
			"_id":         oid(i),
			"name":        fmt.Sprintf("item%02d", i),
			"description": fmt.Sprintf("description of item %d", i),
		}
	}
	return docs
}

func badRequest(t *testing.T, err error, wantMsg string) {
	t.Helper()
	var e *resp.Exception
	if !errors.As(err, &e) {
		t.Fatalf("error = %v, want *resp.Exception", err)
	}
	if e.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", e.Status)
	}
	if !strings.Contains(e.Message, wantMsg) {
		t.Errorf("message = %q, want it to contain %q", e.Message, wantMsg)
	}
}

func TestScrollValidation(t *testing.T) {
	coll := &fakeCollection{docs: seedItems(3)}
	ctx := context.Background()

	cases := []struct {
		name    string
		params  Params
		wantMsg string
	}{
		{"zero limit", Params{Limit: 0}, "limit must be >= 1"},
		{"negative limit", Params{Limit: -5}, "limit must be >= 1"},
		{"limit too large", Params{Limit: 101}, "limit must be <= 100"},
		{"disallowed sort field", Params{Limit: 10, SortBy: "bogus"}, "sort_by must be one of: name, description"},
		{"bad order", Params{Limit: 10, Order: "sideways"}, "order must be 'asc' or 'desc'"},
		{"malformed cursor", Params{Limit: 10, AfterID: "not-an-object-id"}, "after_id must be a valid MongoDB ObjectId"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Scroll(ctx, coll, c.params)
			if err == nil {
				t.Fatal("Scroll() should fail")
			}
			badRequest(t, err, c.wantMsg)
			if coll.lastFilter != nil {
				t.Error("no query may execute on validation failure")
			}
		})
	}
}

func TestScrollCustomAllowList(t *testing.T) {
	coll := &fakeCollection{docs: seedItems(3)}

	_, err := Scroll(context.Background(), coll, Params{
		Limit:             10,
		SortBy:            "status",
		AllowedSortFields: []string{"name", "status", "created_at"},
	})
	if err != nil {
		t.Errorf("allow-listed sort field rejected: %v", err)
	}

	_, err = Scroll(context.Background(), coll, Params{
		Limit:             10,
		SortBy:            "description",
		AllowedSortFields: []string{"name", "status", "created_at"},
	})
	if err == nil {
		t.Fatal("sort field outside custom allow-list should fail")
	}
	badRequest(t, err, "sort_by must be one of: name, status, created_at")
}

func TestScrollFirstPage(t *testing.T) {
	coll := &fakeCollection{docs: seedItems(11)}

	result, err := Scroll(context.Background(), coll, Params{Limit: 10})
	if err != nil {
		t.Fatalf("Scroll() error: %v", err)
	}
	if len(result.Items) != 10 {
		t.Fatalf("len(items) = %d, want 10", len(result.Items))
	}
	if !result.HasMore {
		t.Error("HasMore should be true")
	}
	if result.NextCursor == nil {
		t.Fatal("NextCursor should be set")
	}
	last := result.Items[len(result.Items)-1]
	if want := hexID(last); *result.NextCursor != want {
		t.Errorf("NextCursor = %q, want id of last item %q", *result.NextCursor, want)
	}
	if result.Limit != 10 {
		t.Errorf("Limit = %d, want 10", result.Limit)
	}
}

func TestScrollSecondPage(t *testing.T) {
	coll := &fakeCollection{docs: seedItems(11)}
	ctx := context.Background()

	first, err := Scroll(ctx, coll, Params{Limit: 10})
	if err != nil {
		t.Fatalf("first page error: %v", err)
	}

	second, err := Scroll(ctx, coll, Params{Limit: 10, AfterID: *first.NextCursor})
	if err != nil {
		t.Fatalf("second page error: %v", err)
	}
	if len(second.Items) != 1 {
		t.Fatalf("len(items) = %d, want the single remaining item", len(second.Items))
	}
	if second.HasMore {
		t.Error("HasMore should be false on the last page")
	}
	if second.NextCursor != nil {
		t.Errorf("NextCursor = %v, want nil", *second.NextCursor)
	}
	if second.Items[0]["name"] != "item10" {
		t.Errorf("remaining item = %v", second.Items[0]["name"])
	}
}

func TestScrollExactFit(t *testing.T) {
	coll := &fakeCollection{docs: seedItems(10)}

	result, err := Scroll(context.Background(), coll, Params{Limit: 10})
	if err != nil {
		t.Fatalf("Scroll() error: %v", err)
	}
	if len(result.Items) != 10 || result.HasMore || result.NextCursor != nil {
		t.Errorf("exact fit: len=%d hasMore=%v cursor=%v", len(result.Items), result.HasMore, result.NextCursor)
	}
}

func TestScrollEmptyCollection(t *testing.T) {
	coll := &fakeCollection{}

	result, err := Scroll(context.Background(), coll, Params{Limit: 10})
	if err != nil {
		t.Fatalf("Scroll() error: %v", err)
	}
	if result.Items == nil {
		t.Error("Items must be an empty slice, not nil")
	}
	if len(result.Items) != 0 || result.HasMore || result.NextCursor != nil {
		t.Errorf("empty page: %+v", result)
	}
}

func TestScrollNameFilter(t *testing.T) {
	coll := &fakeCollection{docs: []bson.M{
		{"_id": oid(0), "name": "Perfect MATCH here"},
		{"_id": oid(1), "name": "something else"},
	}}

	result, err := Scroll(context.Background(), coll, Params{Limit: 10, Name: "match"})
	if err != nil {
		t.Fatalf("Scroll() error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(result.Items))
	}
	if result.Items[0]["name"] != "Perfect MATCH here" {
		t.Errorf("matched item = %v", result.Items[0]["name"])
	}

	nameCond, ok := coll.lastFilter["name"].(bson.M)
	if !ok {
		t.Fatalf("name condition missing from filter: %v", coll.lastFilter)
	}
	if nameCond["$regex"] != "match" || nameCond["$options"] != "i" {
		t.Errorf("name condition = %v, want case-insensitive regex", nameCond)
	}
}

func TestScrollCursorDirection(t *testing.T) {
	coll := &fakeCollection{docs: seedItems(5)}
	after := oid(2).Hex()

	if _, err := Scroll(context.Background(), coll, Params{Limit: 10, AfterID: after}); err != nil {
		t.Fatalf("Scroll() error: %v", err)
	}
	idCond := coll.lastFilter["_id"].(bson.M)
	if _, ok := idCond["$gt"]; !ok {
		t.Errorf("ascending cursor should use $gt, got %v", idCond)
	}

	if _, err := Scroll(context.Background(), coll, Params{Limit: 10, AfterID: after, Order: OrderDesc}); err != nil {
		t.Fatalf("Scroll() error: %v", err)
	}
	idCond = coll.lastFilter["_id"].(bson.M)
	if _, ok := idCond["$lt"]; !ok {
		t.Errorf("descending cursor should use $lt, got %v", idCond)
	}
}

func TestScrollOverFetchesOneExtra(t *testing.T) {
	coll := &fakeCollection{docs: seedItems(50)}

	if _, err := Scroll(context.Background(), coll, Params{Limit: 25}); err != nil {
		t.Fatalf("Scroll() error: %v", err)
	}
	if coll.lastOpts == nil || coll.lastOpts.Limit == nil {
		t.Fatal("limit option not set")
	}
	if *coll.lastOpts.Limit != 26 {
		t.Errorf("query limit = %d, want limit+1 = 26", *coll.lastOpts.Limit)
	}
}

func TestScrollDefaultSort(t *testing.T) {
	coll := &fakeCollection{docs: seedItems(3)}

	if _, err := Scroll(context.Background(), coll, Params{Limit: 10}); err != nil {
		t.Fatalf("Scroll() error: %v", err)
	}
	sortSpec := coll.lastOpts.Sort.(bson.D)
	if len(sortSpec) != 1 || sortSpec[0].Key != "name" || sortSpec[0].Value != 1 {
		t.Errorf("sort = %v, want name ascending", sortSpec)
	}
}

func TestScrollDescendingSort(t *testing.T) {
	coll := &fakeCollection{docs: seedItems(3)}

	result, err := Scroll(context.Background(), coll, Params{Limit: 10, Order: OrderDesc})
	if err != nil {
		t.Fatalf("Scroll() error: %v", err)
	}
	sortSpec := coll.lastOpts.Sort.(bson.D)
	if sortSpec[0].Value != -1 {
		t.Errorf("sort = %v, want descending", sortSpec)
	}
	if result.Items[0]["name"] != "item02" {
		t.Errorf("first item = %v, want the highest name", result.Items[0]["name"])
	}
}

func TestScrollHasMoreIffNextCursor(t *testing.T) {
	for _, n := range []int{0, 5, 10, 11, 25} {
		coll := &fakeCollection{docs: seedItems(n)}
		result, err := Scroll(context.Background(), coll, Params{Limit: 10})
		if err != nil {
			t.Fatalf("Scroll() error: %v", err)
		}
		if result.HasMore != (result.NextCursor != nil) {
			t.Errorf("n=%d: HasMore=%v but NextCursor=%v", n, result.HasMore, result.NextCursor)
		}
		if len(result.Items) > 10 {
			t.Errorf("n=%d: page exceeds limit", n)
		}
	}
}

func TestScrollIdempotent(t *testing.T) {
	coll := &fakeCollection{docs: seedItems(11)}
	params := Params{Limit: 7, Order: OrderAsc}

	a, err := Scroll(context.Background(), coll, params)
	if err != nil {
		t.Fatalf("Scroll() error: %v", err)
	}
	b, err := Scroll(context.Background(), coll, params)
	if err != nil {
		t.Fatalf("Scroll() error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical calls against an unchanged store must return identical results")
	}
}

func TestScrollStoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("server selection timeout")
	coll := &fakeCollection{findErr: storeErr}

	_, err := Scroll(context.Background(), coll, Params{Limit: 10})
	if !errors.Is(err, storeErr) {
		t.Errorf("error = %v, store errors must propagate unchanged", err)
	}
	var e *resp.Exception
	if errors.As(err, &e) {
		t.Error("store errors must not be translated into bad requests")
	}
}
