// Package stream serializes staged results onto the wire.
//
// The protocol is plain text with two literal delimiters: a JSON contexts
// frame, then "__LLM_RESPONSE__", then raw answer bytes, then
// "__RELATED_QUESTIONS__" and a JSON string array. Frames are flushed as
// produced so clients see tokens as the model emits them.
package stream
