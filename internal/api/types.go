package api

// TopKRequest asks for the K best candidates. Indices defaults to the
// identity index space when omitted.
type TopKRequest struct {
	Indices []int     `json:"indices,omitempty"`
	Logits  []float32 `json:"logits"`
	K       *int      `json:"k,omitempty"`
	Backend string    `json:"backend,omitempty"`
}

// WarpRequest runs a warper chain. Only the fields present add a stage.
type WarpRequest struct {
	Indices       []int     `json:"indices,omitempty"`
	Logits        []float32 `json:"logits"`
	Recent        []int     `json:"recent,omitempty"`
	RepeatPenalty *float32  `json:"repeat_penalty,omitempty"`
	Temperature   *float32  `json:"temperature,omitempty"`
	TopK          *int      `json:"top_k,omitempty"`
	MinP          *float32  `json:"min_p,omitempty"`
	TopP          *float32  `json:"top_p,omitempty"`
	Backend       string    `json:"backend,omitempty"`
}

// SampleRequest draws one token. Unset parameters use the server defaults.
type SampleRequest struct {
	Logits        []float32 `json:"logits"`
	Recent        []int     `json:"recent,omitempty"`
	Seed          *int64    `json:"seed,omitempty"`
	Temperature   *float32  `json:"temperature,omitempty"`
	TopK          *int      `json:"top_k,omitempty"`
	TopP          *float32  `json:"top_p,omitempty"`
	MinP          *float32  `json:"min_p,omitempty"`
	RepeatPenalty *float32  `json:"repeat_penalty,omitempty"`
	RepeatLastN   *int      `json:"repeat_last_n,omitempty"`
	Backend       string    `json:"backend,omitempty"`
}

// CandidateResponse is returned by /v1/topk and /v1/warp.
type CandidateResponse struct {
	ID      string    `json:"id"`
	Object  string    `json:"object"`
	Backend string    `json:"backend,omitempty"`
	Warpers []string  `json:"warpers,omitempty"`
	Indices []int     `json:"indices"`
	Logits  []float32 `json:"logits"`
}

type SampleResponse struct {
	ID     string `json:"id"`
	Object string `json:"object"`
	Token  int    `json:"token"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Backend string `json:"backend"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}
