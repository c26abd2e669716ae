// Package domain contains the core business entities of the content pipeline:
// agents (writing personas), content requests and their generated articles,
// brand knowledge chunks, and uploaded file records. Entities validate
// themselves and carry no persistence or transport concerns.
package domain
