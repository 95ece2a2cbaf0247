package scopeauth

// ConfigBuilder provides fluent API for building configurations
type ConfigBuilder struct {
	cfg *Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		cfg: &Config{
			Version:     1,
			Grants:      []*Grant{},
			Roles:       []*Role{},
			Assignments: []RoleAssignment{},
			Employees:   []*Employee{},
			Engine: EngineConfig{
				ContextCacheTTL: 300000,
			},
		},
	}
}

func (b *ConfigBuilder) Version(v uint16) *ConfigBuilder {
	b.cfg.Version = v
	return b
}

func (b *ConfigBuilder) AddGrant(g *Grant) *ConfigBuilder {
	b.cfg.Grants = append(b.cfg.Grants, g)
	return b
}

func (b *ConfigBuilder) AddRole(r *Role) *ConfigBuilder {
	b.cfg.Roles = append(b.cfg.Roles, r)
	return b
}

func (b *ConfigBuilder) AddAssignment(subjectID, roleID string) *ConfigBuilder {
	b.cfg.Assignments = append(b.cfg.Assignments, RoleAssignment{SubjectID: subjectID, RoleID: roleID})
	return b
}

func (b *ConfigBuilder) AddEmployee(e *Employee) *ConfigBuilder {
	b.cfg.Employees = append(b.cfg.Employees, e)
	return b
}

func (b *ConfigBuilder) EngineSettings(fn func(*EngineConfig)) *ConfigBuilder {
	fn(&b.cfg.Engine)
	return b
}

func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}

func (b *ConfigBuilder) ToYAML() ([]byte, error) {
	return b.cfg.ToYAML()
}

func (b *ConfigBuilder) ToJSON() ([]byte, error) {
	return b.cfg.ToJSON()
}
