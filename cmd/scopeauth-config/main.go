package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matterdesk/scopeauth"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "convert":
		handleConvert()
	case "validate":
		handleValidate()
	case "stats":
		handleStats()
	case "apply":
		handleApply()
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("scopeauth-config - Configuration tool for scopeauth")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  scopeauth-config convert <input> <output>  - Convert between formats")
	fmt.Println("  scopeauth-config validate <file>           - Validate configuration")
	fmt.Println("  scopeauth-config stats <file>              - Show configuration statistics")
	fmt.Println("  scopeauth-config apply <file>              - Apply configuration to engine")
	fmt.Println()
	fmt.Println("Supported formats: .yaml, .yml, .json, .bin")
}

func handleConvert() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: scopeauth-config convert <input> <output>")
		os.Exit(1)
	}

	inputFile := os.Args[2]
	outputFile := os.Args[3]

	cfg, err := loadConfig(inputFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := saveConfig(cfg, outputFile); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Converted %s -> %s\n", inputFile, outputFile)

	inStat, _ := os.Stat(inputFile)
	outStat, _ := os.Stat(outputFile)
	if inStat != nil && outStat != nil {
		reduction := (1 - float64(outStat.Size())/float64(inStat.Size())) * 100
		if reduction > 0 {
			fmt.Printf("Size reduced by %.1f%% (%d -> %d bytes)\n",
				reduction, inStat.Size(), outStat.Size())
		} else {
			fmt.Printf("Size increased by %.1f%% (%d -> %d bytes)\n",
				-reduction, inStat.Size(), outStat.Size())
		}
	}
}

func handleValidate() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: scopeauth-config validate <file>")
		os.Exit(1)
	}

	filename := os.Args[2]
	cfg, err := loadConfig(filename)
	if err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	grantIDs := make(map[string]bool)
	for _, g := range cfg.Grants {
		if g.ID == "" {
			fmt.Printf("Grant missing ID\n")
			os.Exit(1)
		}
		if g.Resource == "" {
			fmt.Printf("Grant %s has no resource\n", g.ID)
			os.Exit(1)
		}
		if g.Scope != scopeauth.ScopeOwn && g.Scope != scopeauth.ScopeTeam && g.Scope != scopeauth.ScopeOrg {
			fmt.Printf("Grant %s has invalid scope %q\n", g.ID, g.Scope)
			os.Exit(1)
		}
		grantIDs[g.ID] = true
	}

	for _, r := range cfg.Roles {
		if r.ID == "" {
			fmt.Printf("Role missing ID\n")
			os.Exit(1)
		}
		for _, gid := range r.GrantIDs {
			if !grantIDs[gid] {
				fmt.Printf("Role %s references unknown grant %s\n", r.ID, gid)
				os.Exit(1)
			}
		}
	}

	employeeIDs := make(map[string]bool)
	for _, e := range cfg.Employees {
		if e.ID == "" {
			fmt.Printf("Employee missing ID\n")
			os.Exit(1)
		}
		employeeIDs[e.ID] = true
	}
	for _, e := range cfg.Employees {
		if e.ManagerID != "" && !employeeIDs[e.ManagerID] {
			fmt.Printf("Warning: employee %s has unknown manager %s\n", e.ID, e.ManagerID)
		}
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  Version: %d\n", cfg.Version)
	fmt.Printf("  Grants: %d\n", len(cfg.Grants))
	fmt.Printf("  Roles: %d\n", len(cfg.Roles))
	fmt.Printf("  Assignments: %d\n", len(cfg.Assignments))
	fmt.Printf("  Employees: %d\n", len(cfg.Employees))
}

func handleStats() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: scopeauth-config stats <file>")
		os.Exit(1)
	}

	filename := os.Args[2]
	cfg, err := loadConfig(filename)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	stat, _ := os.Stat(filename)

	fmt.Println("Configuration Statistics")
	fmt.Println("========================")
	if stat != nil {
		fmt.Printf("File size: %d bytes\n", stat.Size())
	}
	fmt.Printf("Version: %d\n", cfg.Version)
	fmt.Println()

	fmt.Println("Components:")
	fmt.Printf("  Grants:      %d\n", len(cfg.Grants))
	fmt.Printf("  Roles:       %d\n", len(cfg.Roles))
	fmt.Printf("  Assignments: %d\n", len(cfg.Assignments))
	fmt.Printf("  Employees:   %d\n", len(cfg.Employees))
	fmt.Println()

	if len(cfg.Grants) > 0 {
		allowCount := 0
		denyCount := 0
		scopeCounts := make(map[scopeauth.Scope]int)
		for _, g := range cfg.Grants {
			if g.Effect == scopeauth.EffectAllow {
				allowCount++
			} else {
				denyCount++
			}
			scopeCounts[g.Scope]++
		}
		fmt.Println("Grant Details:")
		fmt.Printf("  Allow grants: %d\n", allowCount)
		fmt.Printf("  Deny grants:  %d\n", denyCount)
		fmt.Printf("  Scopes: own=%d team=%d org=%d\n",
			scopeCounts[scopeauth.ScopeOwn], scopeCounts[scopeauth.ScopeTeam], scopeCounts[scopeauth.ScopeOrg])
		fmt.Println()
	}

	if len(cfg.Roles) > 0 {
		totalGrants := 0
		for _, r := range cfg.Roles {
			totalGrants += len(r.GrantIDs)
		}
		fmt.Println("Role Details:")
		fmt.Printf("  Total grant refs: %d\n", totalGrants)
		fmt.Printf("  Avg per role:     %.1f\n", float64(totalGrants)/float64(len(cfg.Roles)))
		fmt.Println()
	}

	if len(cfg.Employees) > 0 {
		active := 0
		for _, e := range cfg.Employees {
			if e.Active {
				active++
			}
		}
		fmt.Println("Employee Details:")
		fmt.Printf("  Active:   %d\n", active)
		fmt.Printf("  Inactive: %d\n", len(cfg.Employees)-active)
		fmt.Println()
	}

	fmt.Println("Engine Configuration:")
	fmt.Printf("  Context cache TTL: %dms\n", cfg.Engine.ContextCacheTTL)
}

func handleApply() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: scopeauth-config apply <file>")
		os.Exit(1)
	}

	filename := os.Args[2]
	cfg, err := loadConfig(filename)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	engine, err := scopeauth.NewEngine(
		scopeauth.NewMemoryGrantStore(),
		scopeauth.NewMemoryRoleStore(),
		scopeauth.NewMemoryRoleAssignmentStore(),
		scopeauth.NewMemoryEmployeeStore(),
	)
	if err != nil {
		fmt.Printf("Error creating engine: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := engine.ApplyConfig(ctx, cfg); err != nil {
		fmt.Printf("Error applying config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Configuration applied successfully\n")
	fmt.Printf("  Grants loaded: %d\n", len(cfg.Grants))
	fmt.Printf("  Roles loaded: %d\n", len(cfg.Roles))
	fmt.Printf("  Employees loaded: %d\n", len(cfg.Employees))
}

func loadConfig(filename string) (*scopeauth.Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	loader := scopeauth.NewConfigLoader()

	switch ext {
	case ".yaml", ".yml":
		return loader.LoadYAML(data)
	case ".json":
		return loader.LoadJSON(data)
	case ".bin":
		return loader.LoadBinary(data)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func saveConfig(cfg *scopeauth.Config, filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))

	var data []byte
	var err error

	switch ext {
	case ".yaml", ".yml":
		data, err = cfg.ToYAML()
	case ".json":
		data, err = cfg.ToJSON()
	case ".bin":
		data, err = scopeauth.EncodeBinaryConfig(cfg)
	default:
		return fmt.Errorf("unsupported file format: %s", ext)
	}

	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}
