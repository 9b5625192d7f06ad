/*
Package dsl reads and writes the offline project document of a canvas and
provides a fluent builder for assembling one in Go.

A document lists components with their properties, raw traits and the names
of the components they depend on. It is stored as YAML or JSON and can be
read from HCL.

Example usage:

	b := dsl.New("shop")

	b.Add("db", "store").
		Image("postgres:16")

	b.Add("api", "webservice").
		Image("shop/api:1.4").
		Port(8080, true).
		Env("DB_HOST", "db").
		DependsOn("db")

	g, err := b.Build()
*/
package dsl
