package service

import (
	"k8s.io/client-go/tools/clientcmd"
)

// ValidateKubeconfig checks that decoded kubeconfig bytes parse as a usable
// client configuration.
func ValidateKubeconfig(kubeconfig []byte) error {
	_, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	return err
}
