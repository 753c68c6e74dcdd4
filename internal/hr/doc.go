// Package hr is the sample domain used by the relmap CLI: departments,
// employees, projects and the bridge linking employees to projects.
//
// Schema holds the DDL for the sample tables. Fixtures are YAML documents
// listing records per collection.
package hr
