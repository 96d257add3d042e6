// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package env

import "github.com/caarlos0/env/v7"

// Options configures how environment variables are read into a struct.
type Options struct {
	// Environment overrides the process environment when set.
	Environment map[string]string

	// RequiredIfNoDef marks every field without envDefault as required.
	RequiredIfNoDef bool

	// Prefix is prepended to each key.
	Prefix string
}

// Parse fills v from the environment, applying each of opts in turn.
func Parse(v interface{}, opts ...Options) error {
	if len(opts) == 0 {
		return env.Parse(v)
	}
	for _, opt := range opts {
		if err := env.Parse(v, env.Options{
			Environment:     opt.Environment,
			RequiredIfNoDef: opt.RequiredIfNoDef,
			Prefix:          opt.Prefix,
		}); err != nil {
			return err
		}
	}

	return nil
}
