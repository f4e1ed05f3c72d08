package traffic

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/indigo-web/traffic/kv"
	"github.com/indigo-web/traffic/message"
	"github.com/indigo-web/traffic/status"
)

// errorBody is the wire shape of a synthesized error response, rendered with json-iterator the
// same way the teacher's Response.JSON/TryJSON serializes application-level JSON bodies.
type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// errorOutbound builds the self-contained FullResponse a decode failure or internal error is
// rendered as, mirroring HttpServerOperations.sendDecodingFailures' "write what we can, then
// close" behavior.
func errorOutbound(code status.Code, err error) message.Outbound {
	body, marshalErr := jsoniter.Marshal(errorBody{Error: err.Error(), Code: int(code)})
	if marshalErr != nil {
		body = []byte(`{"error":"internal server error"}`)
	}

	headers := kv.New().
		Add("Content-Type", "application/json").
		Add("Connection", "close")

	return message.Outbound{
		Kind:    message.FullResponse,
		Code:    code,
		Headers: headers,
		Body:    body,
	}
}
