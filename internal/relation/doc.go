// Package relation wires navigation fields between loaded collections.
//
// Relationships are not declared. They are inferred from key metadata:
//
//   - A foreign-key field fills the single-valued navigation it names with
//     the target record whose primary key equals the foreign-key value.
//   - An iter.Seq[*X] navigation is one-to-many when X has one primary-key
//     field: it yields the X records whose foreign key to the owner type
//     equals the owner's key.
//   - When X has a composite key it is a bridge record: the navigation
//     yields the bridge records whose key field referencing the owner type
//     matches. The far side is one more hop through the bridge's own
//     single-valued navigation.
//
// Navigation fields are non-owning views. Resolve rebuilds them from the
// current live contents and can be called any number of times.
package relation
