/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/experiment"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/utils"
)

// LoadDefinitions reads every experiment definition file in dir. A file
// holds a YAML map of experiment id to declarative spec. A definition
// that fails the closed-field decode or record validation is rejected
// with an error log; it never aborts the rest of the load. The result is
// sorted by id.
func LoadDefinitions(dir string, now time.Time) ([]*v1.Experiment, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		klog.ErrorS(err, "failed to read directory", "path", dir)
		return nil, err
	}
	var results []*v1.Experiment
	for _, f := range files {
		if f.IsDir() || strings.HasPrefix(f.Name(), ".") || !isDefinitionFile(f.Name()) {
			continue
		}
		path := filepath.Join(dir, f.Name())
		exps, err := loadDefinitionFile(path, now)
		if err != nil {
			klog.ErrorS(err, "failed to load definition file, skip it", "path", path)
			continue
		}
		results = append(results, exps...)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Id < results[j].Id })
	return results, nil
}

func isDefinitionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func loadDefinitionFile(path string, now time.Time) ([]*v1.Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, errors.NewInvalidDefinition(filepath.Base(path), err.Error())
	}
	raw := map[string]json.RawMessage{}
	if err = json.Unmarshal(jsonData, &raw); err != nil {
		return nil, errors.NewInvalidDefinition(filepath.Base(path), err.Error())
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	dir := filepath.Dir(path)
	exps := make([]*v1.Experiment, 0, len(raw))
	for _, id := range ids {
		var spec v1.ExperimentSpec
		if err = utils.UnmarshalWithCheck(raw[id], &spec); err != nil {
			klog.ErrorS(errors.NewUnknownField(id, err), "rejected experiment definition", "path", path)
			continue
		}
		exp, err := experiment.New(id, spec, filepath.Join(dir, id), now)
		if err != nil {
			klog.ErrorS(err, "invalid experiment definition, skip it", "id", id, "path", path)
			continue
		}
		exps = append(exps, exp)
	}
	return exps, nil
}
