package file

import (
	"os"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"github.com/xenking/kdelights/internal/domain/wallet"
)

type walletsFile struct {
	Wallets []wallet.Seed `yaml:"wallets"`
}

// LoadWallets reads wallet seeds from a YAML file of the form:
//
//	wallets:
//	  - name: myaccount
//	    balance: 5000000
//	    secret: myaccount
//
// An empty path returns wallet.DefaultSeeds.
func LoadWallets(path string) ([]wallet.Seed, error) {
	if path == "" {
		return wallet.DefaultSeeds(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read wallets file")
	}
	var f walletsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	if len(f.Wallets) == 0 {
		return nil, errors.Errorf("%s: no wallets defined", path)
	}
	return f.Wallets, nil
}
