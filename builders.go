package scopeauth

// Builders provide a fluent API for creating Grants, Roles and Employees

// GrantBuilder builds a Grant
type GrantBuilder struct {
	g *Grant
}

func NewGrantBuilder() *GrantBuilder {
	return &GrantBuilder{g: &Grant{Effect: EffectAllow, Conditions: []Condition{}}}
}

func (b *GrantBuilder) ID(id string) *GrantBuilder         { b.g.ID = id; return b }
func (b *GrantBuilder) Resource(r string) *GrantBuilder    { b.g.Resource = r; return b }
func (b *GrantBuilder) Action(a Action) *GrantBuilder      { b.g.Action = a; return b }
func (b *GrantBuilder) Effect(e Effect) *GrantBuilder      { b.g.Effect = e; return b }
func (b *GrantBuilder) ScopedTo(s Scope) *GrantBuilder     { b.g.Scope = s; return b }
func (b *GrantBuilder) Condition(field, operator string, value any) *GrantBuilder {
	b.g.Conditions = append(b.g.Conditions, Condition{Field: field, Operator: operator, Value: value})
	return b
}
func (b *GrantBuilder) Build() *Grant { return b.g }

// RoleBuilder builds a Role
type RoleBuilder struct {
	r *Role
}

func NewRoleBuilder() *RoleBuilder {
	return &RoleBuilder{r: &Role{GrantIDs: []string{}}}
}
func (b *RoleBuilder) ID(id string) *RoleBuilder    { b.r.ID = id; return b }
func (b *RoleBuilder) Tenant(t string) *RoleBuilder { b.r.TenantID = t; return b }
func (b *RoleBuilder) Name(n string) *RoleBuilder   { b.r.Name = n; return b }
func (b *RoleBuilder) Grants(ids ...string) *RoleBuilder {
	b.r.GrantIDs = append(b.r.GrantIDs, ids...)
	return b
}
func (b *RoleBuilder) Build() *Role { return b.r }

// EmployeeBuilder builds an Employee
type EmployeeBuilder struct {
	e *Employee
}

func NewEmployeeBuilder() *EmployeeBuilder {
	return &EmployeeBuilder{e: &Employee{Active: true}}
}
func (b *EmployeeBuilder) ID(id string) *EmployeeBuilder       { b.e.ID = id; return b }
func (b *EmployeeBuilder) Manager(id string) *EmployeeBuilder  { b.e.ManagerID = id; return b }
func (b *EmployeeBuilder) Tenant(t string) *EmployeeBuilder    { b.e.TenantID = t; return b }
func (b *EmployeeBuilder) Active(active bool) *EmployeeBuilder { b.e.Active = active; return b }
func (b *EmployeeBuilder) Build() *Employee                    { return b.e }
