package source

import (
	"github.com/flaboy/aira-books/pkg/extensions/source/shopify"
	"github.com/flaboy/aira-books/pkg/extensions/source/woocommerce"
)

var platforms map[string]SourcePlatform

func Init() error {
	platforms = make(map[string]SourcePlatform)

	for _, platform := range []SourcePlatform{
		&woocommerce.WooCommerce{},
		&shopify.Shopify{},
	} {
		Register(platform)
	}

	return nil
}

// Register adds or replaces a platform adapter.
func Register(platform SourcePlatform) {
	if platforms == nil {
		platforms = make(map[string]SourcePlatform)
	}
	platforms[platform.GetPlatformName()] = platform
}

func Get(platformName string) SourcePlatform {
	return platforms[platformName]
}

func GetSupportedPlatforms() []string {
	var names []string
	for name := range platforms {
		names = append(names, name)
	}
	return names
}
