// Package paging implements cursor-based infinite scroll queries over a
// MongoDB collection.
//
// A page is requested with the id of the last item of the previous page as
// the cursor. The engine filters on _id relative to that cursor ($gt when
// ascending, $lt when descending), sorts by the requested field, and fetches
// one item more than the limit so "has more" is known without a count query.
//
// # Usage
//
//	result, err := paging.Scroll(ctx, collection, paging.Params{
//	    Name:  "widget",
//	    Limit: 25,
//	    SortBy: "name",
//	    Order:  paging.OrderAsc,
//	})
//
// The result serializes as
//
//	{
//	  "items": [...],
//	  "limit": 25,
//	  "has_more": true,
//	  "next_cursor": "66f1..."
//	}
//
// # Cursor semantics
//
// The cursor is always the _id of the last returned document, even when the
// sort field is not _id. Continuation is therefore only gapless when the sort
// field is monotonic with _id (for example creation time). Existing callers
// rely on this behavior; do not replace it with a compound cursor on the
// sort field.
package paging
