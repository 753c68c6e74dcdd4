// Package schema reads mapping metadata from plain Go record types.
//
// A record type is a struct. Its fields are described with the `db` tag:
//
//	type Employee struct {
//		ID           int64       `db:"id,pk"`
//		Name         string      `db:"name" validate:"required"`
//		DepartmentID int64       `db:"department_id,fk=Department"`
//		Department   *Department // single-valued navigation
//		Scratch      string      `db:"-"`
//	}
//
// Tag options:
//   - pk: the field is part of the primary key (two or more make a bridge record)
//   - fk=Name: the field is a foreign key resolved into navigation field Name
//   - "-": the field is never read from or written to the store
//
// Navigation fields are recognised by their type and are never columns:
// *X is single-valued, iter.Seq[*X] is collection-valued. A record type can
// override its table name by implementing Tabler.
//
// Only fields whose type appears in an AllowedTypes table are storable.
// The table is immutable and passed explicitly; there is no global list.
package schema
