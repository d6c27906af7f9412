package paging

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mentorhub/apikit/net/resp"
)

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Limit bounds and defaults applied by Scroll.
const (
	MinLimit      = 1
	MaxLimit      = 100
	DefaultLimit  = 10
	DefaultSortBy = "name"
)

// DefaultAllowedSortFields applies when the caller supplies no allow-list.
var DefaultAllowedSortFields = []string{"name", "description"}

// Finder is the slice of *mongo.Collection the engine queries through.
type Finder interface {
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// Params are the page request parameters.
//
// Zero values for SortBy, Order, and AllowedSortFields mean "use the
// default". Limit is taken as given: callers that want a default page size
// apply it before calling Scroll, and a zero limit is rejected.
type Params struct {
	// Name filters on the name field, case-insensitive substring match.
	Name string
	// AfterID is the cursor: the _id of the last item of the previous page.
	AfterID string
	// Limit is the page size, between MinLimit and MaxLimit.
	Limit int
	// SortBy must be a member of AllowedSortFields.
	SortBy string
	// Order is OrderAsc or OrderDesc.
	Order string
	// AllowedSortFields is the set of fields callers may sort by.
	AllowedSortFields []string
}

// Result is one page of documents.
type Result struct {
	Items      []bson.M `json:"items"`
	Limit      int      `json:"limit"`
	HasMore    bool     `json:"has_more"`
	NextCursor *string  `json:"next_cursor"`
}

// normalize fills defaulted fields in place.
func (p *Params) normalize() {
	if p.SortBy == "" {
		p.SortBy = DefaultSortBy
	}
	if p.Order == "" {
		p.Order = OrderAsc
	}
	if len(p.AllowedSortFields) == 0 {
		p.AllowedSortFields = DefaultAllowedSortFields
	}
}

// validate checks every parameter before any query runs. Failures are bad
// request exceptions with actionable messages.
func (p *Params) validate() error {
	if p.Limit < MinLimit {
		return resp.BadRequest("limit must be >= 1")
	}
	if p.Limit > MaxLimit {
		return resp.BadRequest("limit must be <= 100")
	}

	allowed := false
	for _, field := range p.AllowedSortFields {
		if p.SortBy == field {
			allowed = true
			break
		}
	}
	if !allowed {
		return resp.BadRequest(fmt.Sprintf("sort_by must be one of: %s", strings.Join(p.AllowedSortFields, ", ")))
	}

	if p.Order != OrderAsc && p.Order != OrderDesc {
		return resp.BadRequest("order must be 'asc' or 'desc'")
	}

	if p.AfterID != "" {
		if _, err := primitive.ObjectIDFromHex(p.AfterID); err != nil {
			return resp.BadRequest("after_id must be a valid MongoDB ObjectId")
		}
	}
	return nil
}

// filter builds the match document: an optional case-insensitive name match
// and the _id range constraint derived from the cursor.
func (p *Params) filter() bson.M {
	match := bson.M{}
	if p.Name != "" {
		match["name"] = bson.M{"$regex": p.Name, "$options": "i"}
	}
	if p.AfterID != "" {
		// Validated above, so the hex cannot fail here.
		oid, _ := primitive.ObjectIDFromHex(p.AfterID)
		op := "$gt"
		if p.Order == OrderDesc {
			op = "$lt"
		}
		match["_id"] = bson.M{op: oid}
	}
	return match
}

// sort builds the single-key sort specification.
func (p *Params) sort() bson.D {
	direction := 1
	if p.Order == OrderDesc {
		direction = -1
	}
	return bson.D{{Key: p.SortBy, Value: direction}}
}

// Scroll executes a cursor-based page query against collection.
//
// It fetches limit+1 documents; when the extra one comes back the page is
// truncated to limit, HasMore is set, and NextCursor is the _id of the last
// returned item. Validation failures are returned as *resp.Exception; store
// errors propagate unchanged.
func Scroll(ctx context.Context, collection Finder, p Params) (*Result, error) {
	p.normalize()
	if err := p.validate(); err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(p.sort()).
		SetLimit(int64(p.Limit + 1))

	cursor, err := collection.Find(ctx, p.filter(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []bson.M{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}

	result := &Result{Items: items, Limit: p.Limit}
	if len(items) > p.Limit {
		result.Items = items[:p.Limit]
		result.HasMore = true
		cursorID := hexID(result.Items[len(result.Items)-1])
		result.NextCursor = &cursorID
	}
	return result, nil
}

// hexID renders a document's _id as the cursor string.
func hexID(doc bson.M) string {
	switch id := doc["_id"].(type) {
	case primitive.ObjectID:
		return id.Hex()
	default:
		return fmt.Sprintf("%v", id)
	}
}
