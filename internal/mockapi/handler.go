package mockapi

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/rozklad/api/transport"
	"github.com/fastygo/rozklad/pkg/httpcontext"
	"github.com/fastygo/rozklad/pkg/validate"
)

const notEnoughPermissions = "Not enough permissions"

// API holds the handlers of the stub backend.
type API struct {
	data    *Data
	issuer  *Issuer
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func (a *API) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if a.adapter != nil {
		return a.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func respondDetail(ctx *fasthttp.RequestCtx, status int, detail string) {
	respondJSON(ctx, status, transport.NewDetail(detail))
}

func respondNotFound(ctx *fasthttp.RequestCtx, what string) {
	respondDetail(ctx, fasthttp.StatusNotFound, what+" not found")
}

// decode reads the JSON body into v and runs its validate tags, answering 422 with a
// list detail on failure.
func decode(ctx *fasthttp.RequestCtx, v interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		respondJSON(ctx, fasthttp.StatusUnprocessableEntity, transport.NewValidationDetail([]transport.ValidationItem{
			{Loc: []interface{}{"body"}, Msg: "Invalid JSON body", Type: "json_invalid"},
		}))
		return false
	}
	if err := validate.Struct(v); err != nil {
		fields := validate.Fields(err)
		items := make([]transport.ValidationItem, 0, len(fields))
		for _, f := range fields {
			items = append(items, transport.ValidationItem{Loc: []interface{}{"body", f.Field}, Msg: f.Message, Type: "value_error"})
		}
		respondJSON(ctx, fasthttp.StatusUnprocessableEntity, transport.NewValidationDetail(items))
		return false
	}
	return true
}

// pathID parses the {id} route parameter, answering 422 when it is not a number.
func pathID(ctx *fasthttp.RequestCtx) (int64, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondJSON(ctx, fasthttp.StatusUnprocessableEntity, transport.NewValidationDetail([]transport.ValidationItem{
			{Loc: []interface{}{"path", "id"}, Msg: "Input should be a valid integer", Type: "int_parsing"},
		}))
		return 0, false
	}
	return id, true
}

func queryInt(ctx *fasthttp.RequestCtx, key string) int64 {
	v, err := strconv.ParseInt(string(ctx.QueryArgs().Peek(key)), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func queryBool(ctx *fasthttp.RequestCtx, key string) bool {
	v, _ := strconv.ParseBool(string(ctx.QueryArgs().Peek(key)))
	return v
}

func (a *API) Health(ctx *fasthttp.RequestCtx) {
	respondJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}
