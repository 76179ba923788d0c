package main

import (
	"github.com/trezcool/shule/core/user"
)

func (cli *commandLine) addUser(uname, name, role, email, pwd string) error {
	data := user.NewUser{
		Username: uname,
		Password: pwd,
		Name:     name,
		Email:    email,
		Role:     role,
	}
	if err := data.Validate(cli.validate, cli.usrSvc); err != nil {
		return err
	}
	_, err := cli.usrSvc.Create(data)
	return err
}
