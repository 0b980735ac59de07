// Package bio registers the sequence toolkit as dispatchable functions.
//
// Names and the filepath parameter match the function descriptors the model
// has always been offered, so existing prompts keep working. The filepath
// argument is accepted for compatibility only: handlers always run against
// the records of the request's own upload.
package bio
