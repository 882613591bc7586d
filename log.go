package bufchan

import "github.com/sirupsen/logrus"

// defaultLogger is used by any Channel created without WithLogger. It is
// a package-level var, not a global logrus.SetLevel call, so embedding
// applications keep control of their own root logger configuration.
var defaultLogger = logrus.WithField("component", "bufchan")
