// Package transport performs single HTTP exchanges for ssc.
//
// It never retries. It only makes the outcome explicit: a *NoResponseError
// when the server could not be reached (it matches ErrNetwork), a
// *ResponseError for error statuses, or a fully read *Response. Retrying is
// the job of the request package.
package transport
