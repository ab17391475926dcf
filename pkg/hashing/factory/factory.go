package factory

import (
	"fmt"
	"sort"
	"strings"

	"brutepin/pkg/hashing/core"
	"brutepin/pkg/hashing/methods/software"
)

// HashMethodFactory creates and manages hash method instances
type HashMethodFactory struct {
	config  *HashMethodConfig
	methods map[string]core.HashMethod
	best    core.HashMethod
}

// NewHashMethodFactory creates a new factory with the given configuration
func NewHashMethodFactory(config *HashMethodConfig) *HashMethodFactory {
	if config == nil {
		config = DefaultHashMethodConfig()
	}

	factory := &HashMethodFactory{
		config:  config,
		methods: make(map[string]core.HashMethod),
	}

	factory.registerMethods()
	factory.selectBestMethod()

	return factory
}

// registerMethods creates every built-in method
func (f *HashMethodFactory) registerMethods() {
	for _, method := range []core.HashMethod{
		software.NewSHA256Method(),
		software.NewSHA512Method(),
		software.NewSHA3Method(),
		software.NewBLAKE2bMethod(),
		software.NewBLAKE3Method(),
	} {
		f.methods[method.Name()] = method
	}
}

// selectBestMethod picks the first registered method in preferred order
func (f *HashMethodFactory) selectBestMethod() {
	for _, name := range f.config.PreferredOrder {
		if method, exists := f.methods[name]; exists {
			f.best = method
			return
		}
	}

	f.best = f.methods[software.SHA256]
}

// GetBestMethod returns the currently selected best hashing method
func (f *HashMethodFactory) GetBestMethod() core.HashMethod {
	return f.best
}

// GetMethod returns a hashing method by name. An empty name selects the
// best method.
func (f *HashMethodFactory) GetMethod(name string) (core.HashMethod, error) {
	if name == "" {
		return f.GetBestMethod(), nil
	}
	method, exists := f.methods[strings.ToLower(name)]
	if !exists {
		return nil, &core.HashError{
			Type:    core.ErrorUnknownMethod,
			Message: fmt.Sprintf("unknown digest %q (available: %s)", name, strings.Join(f.Names(), ", ")),
			Context: map[string]interface{}{
				"method": name,
			},
		}
	}
	return method, nil
}

// Names returns the registered method names sorted alphabetically
func (f *HashMethodFactory) Names() []string {
	names := make([]string, 0, len(f.methods))
	for name := range f.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetDetectionReport returns a report of registered methods in priority order
func (f *HashMethodFactory) GetDetectionReport() *DetectionReport {
	report := &DetectionReport{
		Methods:      make([]*MethodStatus, 0, len(f.methods)),
		BestMethod:   "none",
		TotalMethods: len(f.methods),
	}

	for _, name := range f.Names() {
		method := f.methods[name]
		report.Methods = append(report.Methods, &MethodStatus{
			Name:         name,
			Priority:     f.getPriority(name),
			Capabilities: method.GetCapabilities(),
		})
	}
	SortMethodsByPriority(report.Methods)

	if f.best != nil {
		report.BestMethod = f.best.Name()
	}

	return report
}

// getPriority returns the priority index of a method
func (f *HashMethodFactory) getPriority(name string) int {
	for i, preferred := range f.config.PreferredOrder {
		if name == preferred {
			return i
		}
	}
	return 999 // Low priority for methods not in preferred list
}

// DetectionReport lists the registered methods
type DetectionReport struct {
	Methods      []*MethodStatus `json:"methods"`
	BestMethod   string          `json:"best_method"`
	TotalMethods int             `json:"total_methods"`
}

// MethodStatus describes a single hashing method
type MethodStatus struct {
	Name         string             `json:"name"`
	Priority     int                `json:"priority"`
	Capabilities *core.Capabilities `json:"capabilities"`
}

// SortMethodsByPriority sorts methods by priority (helper for reports)
func SortMethodsByPriority(methods []*MethodStatus) {
	sort.SliceStable(methods, func(i, j int) bool {
		return methods[i].Priority < methods[j].Priority
	})
}
