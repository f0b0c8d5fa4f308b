package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bind makes a flag override key only when it was set explicitly, so
// empty flag defaults never shadow the file or environment.
func bind(v *viper.Viper, f *pflag.Flag, key string) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
