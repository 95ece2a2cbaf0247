package scopeauth

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete engine configuration: the grant catalogue,
// roles, role assignments, the employee directory and engine tuning.
type Config struct {
	Version     uint16           `json:"version" yaml:"version"`
	Grants      []*Grant         `json:"grants" yaml:"grants"`
	Roles       []*Role          `json:"roles" yaml:"roles"`
	Assignments []RoleAssignment `json:"assignments" yaml:"assignments"`
	Employees   []*Employee      `json:"employees" yaml:"employees"`
	Engine      EngineConfig     `json:"engine" yaml:"engine"`
}

type RoleAssignment struct {
	SubjectID string `json:"subject_id" yaml:"subject_id"`
	RoleID    string `json:"role_id" yaml:"role_id"`
}

type EngineConfig struct {
	ContextCacheTTL int64 `json:"context_cache_ttl_ms" yaml:"context_cache_ttl_ms"`
}

// ConfigLoader loads configuration from various formats
type ConfigLoader struct{}

func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

func (l *ConfigLoader) LoadYAML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *ConfigLoader) LoadJSON(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadBinary loads from the compact binary format
func (l *ConfigLoader) LoadBinary(data []byte) (*Config, error) {
	r := bytes.NewReader(data)
	return decodeBinaryConfig(r)
}

// EncodeBinaryConfig encodes config to binary format
func EncodeBinaryConfig(cfg *Config) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := encodeBinaryConfig(cfg, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToYAML exports config to YAML
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ToJSON exports config to JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// ApplyConfig applies configuration to the engine and its stores. Existing
// grants and roles are updated in place; employees are upserted. The context
// cache is flushed once at the end rather than per mutation.
func (e *Engine) ApplyConfig(ctx context.Context, cfg *Config) error {
	if cfg.Engine.ContextCacheTTL > 0 {
		e.ctxCacheTTL = time.Duration(cfg.Engine.ContextCacheTTL) * time.Millisecond
	}

	for _, g := range cfg.Grants {
		if _, err := e.grantStore.GetGrant(ctx, g.ID); err != nil {
			if err := e.grantStore.CreateGrant(ctx, g); err != nil {
				return fmt.Errorf("create grant %s: %w", g.ID, err)
			}
		} else {
			if err := e.grantStore.UpdateGrant(ctx, g); err != nil {
				return fmt.Errorf("update grant %s: %w", g.ID, err)
			}
		}
	}

	for _, r := range cfg.Roles {
		if _, err := e.roleStore.GetRole(ctx, r.ID); err != nil {
			if err := e.roleStore.CreateRole(ctx, r); err != nil {
				return fmt.Errorf("create role %s: %w", r.ID, err)
			}
		} else {
			if err := e.roleStore.UpdateRole(ctx, r); err != nil {
				return fmt.Errorf("update role %s: %w", r.ID, err)
			}
		}
	}

	for _, a := range cfg.Assignments {
		if err := e.assignmentStore.AssignRole(ctx, a.SubjectID, a.RoleID); err != nil {
			return fmt.Errorf("assign role %s to %s: %w", a.RoleID, a.SubjectID, err)
		}
	}

	for _, emp := range cfg.Employees {
		if err := e.employeeStore.UpsertEmployee(ctx, emp); err != nil {
			return fmt.Errorf("upsert employee %s: %w", emp.ID, err)
		}
	}

	e.ClearCache()
	return nil
}

// Binary protocol encoding/decoding
const (
	binaryMagic   = 0x5341 // "SA"
	binaryVersion = 1
)

func encodeBinaryConfig(cfg *Config, w io.Writer) error {
	buf := &bytes.Buffer{}

	// Header: magic(2) + version(2) + config_version(2)
	binary.Write(buf, binary.LittleEndian, uint16(binaryMagic))
	binary.Write(buf, binary.LittleEndian, uint16(binaryVersion))
	binary.Write(buf, binary.LittleEndian, cfg.Version)

	// Encode sections with type tags
	writeSection(buf, 0x01, func(b *bytes.Buffer) { encodeGrants(b, cfg.Grants) })
	writeSection(buf, 0x02, func(b *bytes.Buffer) { encodeRoles(b, cfg.Roles) })
	writeSection(buf, 0x03, func(b *bytes.Buffer) { encodeAssignments(b, cfg.Assignments) })
	writeSection(buf, 0x04, func(b *bytes.Buffer) { encodeEmployees(b, cfg.Employees) })
	writeSection(buf, 0x05, func(b *bytes.Buffer) { encodeEngineConfig(b, &cfg.Engine) })

	_, err := w.Write(buf.Bytes())
	return err
}

func decodeBinaryConfig(r io.Reader) (*Config, error) {
	cfg := &Config{}

	var magic, ver, cfgVer uint16
	binary.Read(r, binary.LittleEndian, &magic)
	binary.Read(r, binary.LittleEndian, &ver)
	binary.Read(r, binary.LittleEndian, &cfgVer)

	if magic != binaryMagic {
		return nil, fmt.Errorf("invalid magic: %x", magic)
	}
	if ver != binaryVersion {
		return nil, fmt.Errorf("unsupported version: %d", ver)
	}
	cfg.Version = cfgVer

	for {
		var tag uint8
		if err := binary.Read(r, binary.LittleEndian, &tag); err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		var size uint32
		binary.Read(r, binary.LittleEndian, &size)
		data := make([]byte, size)
		io.ReadFull(r, data)

		switch tag {
		case 0x01:
			cfg.Grants = decodeGrants(data)
		case 0x02:
			cfg.Roles = decodeRoles(data)
		case 0x03:
			cfg.Assignments = decodeAssignments(data)
		case 0x04:
			cfg.Employees = decodeEmployees(data)
		case 0x05:
			cfg.Engine = decodeEngineConfig(data)
		}
	}

	return cfg, nil
}

func writeSection(buf *bytes.Buffer, tag uint8, fn func(*bytes.Buffer)) {
	tmp := &bytes.Buffer{}
	fn(tmp)
	binary.Write(buf, binary.LittleEndian, tag)
	binary.Write(buf, binary.LittleEndian, uint32(tmp.Len()))
	buf.Write(tmp.Bytes())
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint16(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) string {
	var l uint16
	binary.Read(r, binary.LittleEndian, &l)
	b := make([]byte, l)
	r.Read(b)
	return string(b)
}

func encodeGrants(buf *bytes.Buffer, grants []*Grant) {
	binary.Write(buf, binary.LittleEndian, uint16(len(grants)))
	for _, g := range grants {
		writeString(buf, g.ID)
		writeString(buf, g.Resource)
		writeString(buf, string(g.Action))
		buf.WriteByte(map[Effect]byte{EffectAllow: 1, EffectDeny: 2}[g.Effect])
		writeString(buf, string(g.Scope))
		condJSON, _ := json.Marshal(g.Conditions)
		writeString(buf, string(condJSON))
	}
}

func decodeGrants(data []byte) []*Grant {
	r := bytes.NewReader(data)
	var count uint16
	binary.Read(r, binary.LittleEndian, &count)
	grants := make([]*Grant, count)
	for i := range grants {
		g := &Grant{}
		g.ID = readString(r)
		g.Resource = readString(r)
		g.Action = Action(readString(r))
		eff, _ := r.ReadByte()
		g.Effect = map[byte]Effect{1: EffectAllow, 2: EffectDeny}[eff]
		g.Scope = Scope(readString(r))
		condStr := readString(r)
		if condStr != "" && condStr != "null" {
			_ = json.Unmarshal([]byte(condStr), &g.Conditions)
		}
		g.CreatedAt = time.Now()
		g.UpdatedAt = time.Now()
		grants[i] = g
	}
	return grants
}

func encodeRoles(buf *bytes.Buffer, roles []*Role) {
	binary.Write(buf, binary.LittleEndian, uint16(len(roles)))
	for _, role := range roles {
		writeString(buf, role.ID)
		writeString(buf, role.TenantID)
		writeString(buf, role.Name)
		binary.Write(buf, binary.LittleEndian, uint16(len(role.GrantIDs)))
		for _, id := range role.GrantIDs {
			writeString(buf, id)
		}
	}
}

func decodeRoles(data []byte) []*Role {
	r := bytes.NewReader(data)
	var count uint16
	binary.Read(r, binary.LittleEndian, &count)
	roles := make([]*Role, count)
	for i := range roles {
		role := &Role{}
		role.ID = readString(r)
		role.TenantID = readString(r)
		role.Name = readString(r)
		var grantCount uint16
		binary.Read(r, binary.LittleEndian, &grantCount)
		role.GrantIDs = make([]string, grantCount)
		for j := range role.GrantIDs {
			role.GrantIDs[j] = readString(r)
		}
		role.CreatedAt = time.Now()
		roles[i] = role
	}
	return roles
}

func encodeAssignments(buf *bytes.Buffer, assignments []RoleAssignment) {
	binary.Write(buf, binary.LittleEndian, uint16(len(assignments)))
	for _, a := range assignments {
		writeString(buf, a.SubjectID)
		writeString(buf, a.RoleID)
	}
}

func decodeAssignments(data []byte) []RoleAssignment {
	r := bytes.NewReader(data)
	var count uint16
	binary.Read(r, binary.LittleEndian, &count)
	assignments := make([]RoleAssignment, count)
	for i := range assignments {
		assignments[i].SubjectID = readString(r)
		assignments[i].RoleID = readString(r)
	}
	return assignments
}

func encodeEmployees(buf *bytes.Buffer, employees []*Employee) {
	binary.Write(buf, binary.LittleEndian, uint16(len(employees)))
	for _, emp := range employees {
		writeString(buf, emp.ID)
		writeString(buf, emp.ManagerID)
		buf.WriteByte(map[bool]byte{true: 1, false: 0}[emp.Active])
		writeString(buf, emp.TenantID)
	}
}

func decodeEmployees(data []byte) []*Employee {
	r := bytes.NewReader(data)
	var count uint16
	binary.Read(r, binary.LittleEndian, &count)
	employees := make([]*Employee, count)
	for i := range employees {
		emp := &Employee{}
		emp.ID = readString(r)
		emp.ManagerID = readString(r)
		act, _ := r.ReadByte()
		emp.Active = act == 1
		emp.TenantID = readString(r)
		employees[i] = emp
	}
	return employees
}

func encodeEngineConfig(buf *bytes.Buffer, cfg *EngineConfig) {
	binary.Write(buf, binary.LittleEndian, cfg.ContextCacheTTL)
}

func decodeEngineConfig(data []byte) EngineConfig {
	r := bytes.NewReader(data)
	cfg := EngineConfig{}
	binary.Read(r, binary.LittleEndian, &cfg.ContextCacheTTL)
	return cfg
}
