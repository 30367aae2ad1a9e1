/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package netcfg holds the configuration options spec.md §6 recognizes
// for the acceptor, connection, UDP endpoint, and stream buffer, plus
// validation (via go-playground/validator) and an optional viper-backed
// decode path for callers that already keep their configuration in a
// viper.Viper tree.
package netcfg

import (
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	liberr "github.com/nabbar/netb/errors"
)

var validate = validator.New()

// BufferConfig configures a stream buffer's initial capacity and upper
// bound, per spec.md §6.
type BufferConfig struct {
	InitialCapacity int `mapstructure:"initial_capacity" validate:"omitempty,min=1"`
	Limit           int `mapstructure:"limit" validate:"omitempty,min=1"`
}

// Validate checks the struct tags above.
func (c BufferConfig) Validate() liberr.Error { return validateStruct(c) }

// DefaultBufferConfig matches spec.md §6's stated defaults.
func DefaultBufferConfig() BufferConfig {
	return BufferConfig{InitialCapacity: 4096, Limit: 1 << 20}
}

// AcceptorConfig configures an async TCP acceptor.
type AcceptorConfig struct {
	ReuseAddress bool `mapstructure:"reuse_address"`
	ReusePort    bool `mapstructure:"reuse_port"`
	Backlog      int  `mapstructure:"backlog" validate:"omitempty,min=1"`
}

func (c AcceptorConfig) Validate() liberr.Error { return validateStruct(c) }

// ConnectionConfig configures an async TCP connection.
type ConnectionConfig struct {
	NoDelay    bool `mapstructure:"no_delay"`
	KeepAlive  bool `mapstructure:"keep_alive"`
	SendBuffer int  `mapstructure:"send_buffer" validate:"omitempty,min=0"`
	RecvBuffer int  `mapstructure:"recv_buffer" validate:"omitempty,min=0"`
}

func (c ConnectionConfig) Validate() liberr.Error { return validateStruct(c) }

// UDPConfig configures an async UDP endpoint.
type UDPConfig struct {
	ReuseAddress bool `mapstructure:"reuse_address"`
	ReusePort    bool `mapstructure:"reuse_port"`
	SendBuffer   int  `mapstructure:"send_buffer" validate:"omitempty,min=0"`
	RecvBuffer   int  `mapstructure:"recv_buffer" validate:"omitempty,min=0"`
}

func (c UDPConfig) Validate() liberr.Error { return validateStruct(c) }

func validateStruct(v interface{}) liberr.Error {
	if err := validate.Struct(v); err != nil {
		return liberr.New(liberr.KindLogic, liberr.CodeSocket, "invalid configuration", err)
	}
	return nil
}

// FromViper decodes the sub-tree at key into out (a pointer to one of
// the Config structs above) and validates the result.
func FromViper(v *viper.Viper, key string, out interface{}) liberr.Error {
	if err := v.UnmarshalKey(key, out); err != nil {
		return liberr.New(liberr.KindLogic, liberr.CodeSocket, "could not decode configuration", err)
	}
	if validatable, ok := out.(interface{ Validate() liberr.Error }); ok {
		return validatable.Validate()
	}
	return nil
}
