package room

// PayloadIn is the format we expect from the JS client
type PayloadIn struct {
	Action string `json:"action"`
	SeatID string `json:"seatId"`
	Amount int    `json:"amount"`
	// Context will be passed back on any outgoing message
	Context string `json:"context"`
}

// Response is a message sent to connected clients
type Response struct {
	Key     string      `json:"key"`
	Value   string      `json:"value"`
	Data    interface{} `json:"data"`
	Context string      `json:"context"`
}

// OK returns a generic success response
func OK(ctx ...string) *Response {
	res := &Response{
		Key:   "status",
		Value: "OK",
	}

	if len(ctx) == 1 {
		res.Context = ctx[0]
	}

	return res
}

func newErrorResponse(ctx string, err error) *Response {
	return &Response{
		Key:     "error",
		Value:   err.Error(),
		Context: ctx,
	}
}
