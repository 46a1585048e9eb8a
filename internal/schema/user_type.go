package schema

func (u UserDefinedType) describe(d *Describer, pretty bool) string {
	b := d.newBuilder(pretty)
	b.Append("CREATE TYPE ").
		AppendIdentifier(u.Keyspace).
		Append(".").
		AppendIdentifier(u.Name).
		Append(" (").
		IncreaseIndent().
		NewLine()
	for i, f := range u.Fields {
		b.AppendIdentifier(f.Name).Append(" ").Append(f.Type.AsCQL(true))
		if i < len(u.Fields)-1 {
			b.Append(",").NewLine()
		}
	}
	return b.DecreaseIndent().NewLine().Append(");").Build()
}
