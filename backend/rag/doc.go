// Package rag implements the production retrieval-and-generation backend.
//
// A query is embedded, matched against the document store by cosine
// similarity, and the winning documents are fed to the chat model both as
// grounding for the streamed answer and as material for follow-up question
// generation.
package rag
